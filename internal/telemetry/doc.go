// Package telemetry обеспечивает наблюдаемость gapfill.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики reconciliation
//   - push.go    — отправка метрик в Pushgateway для разовых запусков
//
// В режиме serve метрики отдаются на /metrics endpoint.
package telemetry
