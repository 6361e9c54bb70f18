package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// MessageTypeReportFinished — проход reconciliation завершён.
const MessageTypeReportFinished MessageType = "report.finished"

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReportFinishedPayload — итог прохода.
type ReportFinishedPayload struct {
	RunID        uuid.UUID  `json:"run_id,omitempty"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Success      bool       `json:"success"`
	Succeeded    []string   `json:"succeeded,omitempty"`
	Failed       []string   `json:"failed,omitempty"`
	GeneralError string     `json:"general_error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// channelFunc открывает канал для публикации. Реализуется *Connection.
type channelFunc func(ctx context.Context, fn func(ch *amqp.Channel) error) error

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	withChannel channelFunc
	exchange    Exchange
	logger      *slog.Logger
}

// NewPublisher создаёт новый Publisher для exchange.
func NewPublisher(conn *Connection, exchange Exchange, logger *slog.Logger) *Publisher {
	return &Publisher{
		withChannel: conn.WithChannel,
		exchange:    exchange,
		logger:      logger,
	}
}

// newMessage оборачивает payload в конверт с новым ID.
func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Publish публикует сообщение с routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.withChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(p.exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", p.exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", p.exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishReportFinished публикует итог прохода.
func (p *Publisher) PublishReportFinished(ctx context.Context, payload ReportFinishedPayload) error {
	return p.Publish(ctx, RoutingKeyFinished, newMessage(MessageTypeReportFinished, payload))
}
