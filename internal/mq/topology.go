package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Имена по умолчанию.
const (
	ExchangeReports Exchange = "gapfill.reports"

	QueueReportsFinished Queue = "reports.finished"

	RoutingKeyFinished RoutingKey = "finished"
)

// SetupTopology объявляет durable exchange и очередь отчётов.
// Объявление идемпотентно, вызывается при каждом старте.
func SetupTopology(ctx context.Context, conn *Connection, exchange Exchange) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(exchange), // name
			"direct",         // type
			true,             // durable
			false,            // auto-deleted
			false,            // internal
			false,            // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueReportsFinished), // name
			true,                         // durable
			false,                        // delete when unused
			false,                        // exclusive
			false,                        // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueReportsFinished, err)
		}

		err = ch.QueueBind(
			string(QueueReportsFinished),
			string(RoutingKeyFinished),
			string(exchange),
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueReportsFinished, err)
		}
		return nil
	})
}
