package notify

import (
	"context"

	"github.com/shaiso/gapfill/internal/mq"
)

// ReportPublisher публикует итог прохода. Реализуется *mq.Publisher.
type ReportPublisher interface {
	PublishReportFinished(ctx context.Context, payload mq.ReportFinishedPayload) error
}

// AMQPSink публикует уведомления как события report.finished.
type AMQPSink struct {
	publisher ReportPublisher
}

// NewAMQPSink создаёт AMQPSink.
func NewAMQPSink(p ReportPublisher) *AMQPSink {
	return &AMQPSink{publisher: p}
}

// Name возвращает идентификатор sink.
func (s *AMQPSink) Name() string { return "amqp" }

// Send публикует уведомление вместе с содержимым отчёта, если он есть.
func (s *AMQPSink) Send(ctx context.Context, n Notification) error {
	payload := mq.ReportFinishedPayload{
		Title:   n.Title,
		Message: n.Message,
		Success: n.Success,
	}
	if r := n.Report; r != nil {
		payload.RunID = r.RunID
		payload.Succeeded = r.Succeeded
		payload.Failed = r.Failed
		payload.GeneralError = r.GeneralError
		payload.StartedAt = &r.StartedAt
		payload.FinishedAt = r.FinishedAt
	}
	return s.publisher.PublishReportFinished(ctx, payload)
}
