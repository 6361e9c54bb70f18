// Package notify доставляет итоговые уведомления о проходе reconciliation.
//
// Dispatcher рассылает одно уведомление во все настроенные sinks.
// Ошибки доставки только логируются и никогда не прерывают проход.
package notify

import (
	"context"
	"log/slog"

	"github.com/shaiso/gapfill/internal/domain"
)

// Notification — уведомление для отправки.
type Notification struct {
	Title   string
	Message string

	// Success определяет оформление: зелёное при true, красное при false.
	Success bool

	// Report — итоговый отчёт. Nil для стартового и фатального уведомлений.
	Report *domain.RunReport
}

// FromReport строит итоговое уведомление из отчёта.
func FromReport(r *domain.RunReport) Notification {
	return Notification{
		Title:   r.Title(),
		Message: r.Message(),
		Success: r.OK(),
		Report:  r,
	}
}

// Sink — получатель уведомлений.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Dispatcher рассылает уведомления по sinks.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher создаёт Dispatcher. Без sinks Dispatch ничего не делает.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Add добавляет sink.
func (d *Dispatcher) Add(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Len возвращает количество sinks.
func (d *Dispatcher) Len() int {
	return len(d.sinks)
}

// Dispatch отправляет уведомление во все sinks.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	if len(d.sinks) == 0 {
		d.logger.Debug("no notification sinks configured, skipping", "title", n.Title)
		return
	}

	for _, s := range d.sinks {
		if err := s.Send(ctx, n); err != nil {
			d.logger.Error("failed to send notification",
				"sink", s.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		d.logger.Info("notification sent", "sink", s.Name(), "title", n.Title)
	}
}
