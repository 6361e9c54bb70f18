package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrConnectionClosed — соединение закрыто через Close.
var ErrConnectionClosed = errors.New("amqp connection closed")

// Connection — обёртка над AMQP соединением.
//
// gapfill публикует одно сообщение за проход, поэтому вместо фонового
// мониторинга соединение переоткрывается лениво: если к моменту публикации
// канал или соединение закрыты, WithChannel подключается заново.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewConnection создаёт новое соединение с RabbitMQ.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	c := &Connection{url: url, logger: logger}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

// connectLocked устанавливает соединение и открывает канал. Вызывается под mu.
func (c *Connection) connectLocked() error {
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return fmt.Errorf("dial amqp: %w", err)
		}
		c.conn = conn
		c.channel = nil
		c.logger.Info("connected to RabbitMQ")
	}

	if c.channel == nil || c.channel.IsClosed() {
		ch, err := c.conn.Channel()
		if err != nil {
			return fmt.Errorf("open channel: %w", err)
		}
		c.channel = ch
	}
	return nil
}

// WithChannel выполняет функцию с живым каналом, при необходимости переподключаясь.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.connectLocked(); err != nil {
		return err
	}
	return fn(c.channel)
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close закрывает канал и соединение. Повторные вызовы игнорируются.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.logger.Info("amqp connection closed")
	return nil
}
