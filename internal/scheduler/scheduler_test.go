package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateCronExpr(t *testing.T) {
	valid := []string{"0 6 * * *", "*/15 * * * 1-5", "@daily", "@every 1h"}
	for _, expr := range valid {
		assert.NoError(t, ValidateCronExpr(expr), expr)
	}

	invalid := []string{"", "0 6 * *", "61 * * * *", "0 0 6 * * *", "@sometimes"}
	for _, expr := range invalid {
		assert.Error(t, ValidateCronExpr(expr), expr)
	}
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	next, err := NextRun("0 6 * * *", from, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC), next)

	// В UTC-3 сейчас 04:00, запуск в 06:00 того же дня
	loc := time.FixedZone("BRT", -3*3600)
	next, err = NextRun("0 6 * * *", from, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), next.UTC())

	_, err = NextRun("bad", from, nil)
	assert.Error(t, err)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{CronExpr: "0 6 * * *"})
	assert.True(t, errors.Is(err, ErrNoJob))

	_, err = New(Config{CronExpr: "nope", Job: func(context.Context) {}})
	assert.Error(t, err)
}

func TestScheduler_Next(t *testing.T) {
	s, err := New(Config{
		CronExpr: "0 6 * * *",
		Location: time.UTC,
		Job:      func(context.Context) {},
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	next := s.Next()
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 6, next.UTC().Hour())
}

func TestScheduler_RunsJobAndStopsCleanly(t *testing.T) {
	var runs atomic.Int32
	jobCtx := make(chan context.Context, 1)

	s, err := New(Config{
		CronExpr: "@every 1s",
		Job: func(ctx context.Context) {
			if runs.Add(1) == 1 {
				jobCtx <- ctx
			}
		},
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case got := <-jobCtx:
		// Job получает контекст Run
		assert.NoError(t, got.Err())
	case <-time.After(5 * time.Second):
		t.Fatal("job was not triggered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	var running, maxRunning atomic.Int32
	release := make(chan struct{})

	s, err := New(Config{
		CronExpr: "@every 1s",
		Job: func(context.Context) {
			n := running.Add(1)
			for {
				m := maxRunning.Load()
				if n <= m || maxRunning.CompareAndSwap(m, n) {
					break
				}
			}
			<-release
			running.Add(-1)
		},
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Держим первый проход дольше нескольких тиков
	time.Sleep(3500 * time.Millisecond)
	close(release)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), maxRunning.Load())
}
