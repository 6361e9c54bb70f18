package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", slog.LevelInfo)
	WithProcess(WithRunID(logger, "run-1"), "Sales").Info("gap detected", "date", "2024-03-06")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gap detected", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "Sales", entry["process"])

	logger.Debug("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Equal(t, logger, FromContext(ctx))
}

func TestObserveCall(t *testing.T) {
	before := testutil.ToFloat64(ProcedureCalls.WithLabelValues("metrics-test", StatusFailed))

	ObserveCall("metrics-test", false)
	ObserveCall("metrics-test", true)

	assert.Equal(t, before+1, testutil.ToFloat64(ProcedureCalls.WithLabelValues("metrics-test", StatusFailed)))
}

func TestObserveRun(t *testing.T) {
	okBefore := testutil.ToFloat64(Runs.WithLabelValues(StatusSucceeded))
	failBefore := testutil.ToFloat64(Runs.WithLabelValues(StatusFailed))

	finished := time.Unix(1710000000, 0)
	ObserveRun(true, 2*time.Second, finished)
	ObserveRun(false, time.Second, finished.Add(time.Hour))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(Runs.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(Runs.WithLabelValues(StatusFailed)))
	// Неуспешный проход не сдвигает время последнего успеха
	assert.Equal(t, float64(1710000000), testutil.ToFloat64(LastSuccess))
}

func TestPushMetrics(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "push_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	require.NoError(t, PushMetrics(context.Background(), server.URL, reg))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/gapfill", gotPath)
}

func TestPushMetrics_NoURL(t *testing.T) {
	assert.NoError(t, PushMetrics(context.Background(), "", prometheus.NewRegistry()))
}
