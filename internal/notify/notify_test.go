package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/gapfill/internal/domain"
	"github.com/shaiso/gapfill/internal/mq"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink запоминает полученные уведомления.
type recordingSink struct {
	name string
	err  error
	got  []Notification
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, n Notification) error {
	s.got = append(s.got, n)
	return s.err
}

// --- Dispatcher ---

func TestDispatcher_NoSinks(t *testing.T) {
	d := NewDispatcher(discardLogger())
	assert.Equal(t, 0, d.Len())
	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), Notification{Title: "x"})
	})
}

func TestDispatcher_SinkErrorDoesNotStopOthers(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("network down")}
	ok := &recordingSink{name: "ok"}

	d := NewDispatcher(discardLogger(), failing)
	d.Add(ok)
	d.Dispatch(context.Background(), Notification{Title: "Process finished", Success: true})

	require.Len(t, failing.got, 1)
	require.Len(t, ok.got, 1)
	assert.Equal(t, "Process finished", ok.got[0].Title)
}

func TestFromReport(t *testing.T) {
	r := domain.NewRunReport(time.Now())
	r.Record(domain.ExecutionResult{Process: "Sales", Date: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), Err: errors.New("x")})

	n := FromReport(r)
	assert.Equal(t, domain.TitleFinishedErrors, n.Title)
	assert.False(t, n.Success)
	assert.Contains(t, n.Message, "Sales (2024-03-06)")
	assert.Same(t, r, n.Report)
}

// --- TeamsSink ---

func TestTeamsSink_Send(t *testing.T) {
	tests := []struct {
		name      string
		success   bool
		wantColor string
	}{
		{"success is green", true, "00FF00"},
		{"failure is red", false, "FF0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var card map[string]any
			var contentType string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				contentType = r.Header.Get("Content-Type")
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&card))
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			sink := NewTeamsSink(server.URL)
			err := sink.Send(context.Background(), Notification{
				Title:   "Process finished",
				Message: "**Successful executions:** Sales (2024-03-06).  \n",
				Success: tt.success,
			})
			require.NoError(t, err)

			assert.Equal(t, "application/json", contentType)
			assert.Equal(t, "MessageCard", card["@type"])
			assert.Equal(t, tt.wantColor, card["themeColor"])
			assert.Equal(t, "Process finished", card["summary"])

			sections := card["sections"].([]any)
			require.Len(t, sections, 1)
			section := sections[0].(map[string]any)
			assert.Equal(t, "Process finished", section["activityTitle"])
			assert.Equal(t, true, section["markdown"])

			facts := section["facts"].([]any)
			fact := facts[0].(map[string]any)
			assert.Equal(t, "Status", fact["name"])
			assert.Contains(t, fact["value"], "Sales (2024-03-06)")
		})
	}
}

func TestTeamsSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewTeamsSink(server.URL).Send(context.Background(), Notification{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestTeamsSink_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewTeamsSink(url).Send(context.Background(), Notification{Title: "x"})
	assert.Error(t, err)
}

// --- ConsoleSink ---

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	require.NoError(t, sink.Send(context.Background(), Notification{Title: "Process failed", Message: "boom"}))
	assert.Equal(t, "[ERROR] Process failed\nboom\n", buf.String())
}

// --- AMQPSink ---

type fakePublisher struct {
	payloads []mq.ReportFinishedPayload
	err      error
}

func (p *fakePublisher) PublishReportFinished(_ context.Context, payload mq.ReportFinishedPayload) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestAMQPSink_WithReport(t *testing.T) {
	r := domain.NewRunReport(time.Now())
	r.Record(domain.ExecutionResult{Process: "Sales", Date: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)})
	r.Finish(time.Now())

	pub := &fakePublisher{}
	require.NoError(t, NewAMQPSink(pub).Send(context.Background(), FromReport(r)))

	require.Len(t, pub.payloads, 1)
	p := pub.payloads[0]
	assert.Equal(t, r.RunID, p.RunID)
	assert.True(t, p.Success)
	assert.Equal(t, []string{"Sales (2024-03-06)"}, p.Succeeded)
	assert.NotNil(t, p.FinishedAt)
}

func TestAMQPSink_WithoutReport(t *testing.T) {
	pub := &fakePublisher{err: errors.New("closed")}
	err := NewAMQPSink(pub).Send(context.Background(), Notification{Title: domain.TitleFailed})

	assert.Error(t, err)
	require.Len(t, pub.payloads, 1)
	assert.Nil(t, pub.payloads[0].StartedAt)
	assert.Equal(t, domain.TitleFailed, pub.payloads[0].Title)
}
