package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob — имя job в Pushgateway.
const PushJob = "gapfill"

// PushMetrics отправляет метрики из gatherer в Pushgateway.
//
// Используется разовым запуском (gapfill run), который завершается
// раньше, чем Prometheus успел бы его опросить.
func PushMetrics(ctx context.Context, url string, gatherer prometheus.Gatherer) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, PushJob).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
