package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Статусы в метках метрик.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var (
	// GapsDetected — количество найденных пропущенных дней по процессам.
	GapsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gapfill_gaps_detected_total",
		Help: "Missing daily partitions detected, by process",
	}, []string{"process"})

	// ProcedureCalls — вызовы процедур догрузки по процессам и статусу.
	ProcedureCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gapfill_procedure_calls_total",
		Help: "Backfill procedure invocations, by process and status",
	}, []string{"process", "status"})

	// ProcessesSkipped — процессы, пропущенные из-за некорректного определения.
	ProcessesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gapfill_processes_skipped_total",
		Help: "Process definitions skipped because they were incomplete or invalid",
	})

	// Runs — завершённые проходы reconciliation по статусу.
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gapfill_runs_total",
		Help: "Reconciliation runs, by final status",
	}, []string{"status"})

	// RunDuration — длительность прохода.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gapfill_run_duration_seconds",
		Help:    "Duration of a full reconciliation run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// LastSuccess — unix-время последнего успешного прохода.
	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gapfill_last_success_timestamp_seconds",
		Help: "Unix time of the last run that finished without errors",
	})
)

// ObserveRun записывает итог прохода в метрики.
func ObserveRun(ok bool, duration time.Duration, finishedAt time.Time) {
	RunDuration.Observe(duration.Seconds())
	if ok {
		Runs.WithLabelValues(StatusSucceeded).Inc()
		LastSuccess.Set(float64(finishedAt.Unix()))
		return
	}
	Runs.WithLabelValues(StatusFailed).Inc()
}

// ObserveCall записывает вызов процедуры.
func ObserveCall(process string, ok bool) {
	status := StatusSucceeded
	if !ok {
		status = StatusFailed
	}
	ProcedureCalls.WithLabelValues(process, status).Inc()
}
