package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConsoleSink печатает уведомления в терминал.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink создаёт ConsoleSink. Nil writer означает stdout.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

// Name возвращает идентификатор sink.
func (s *ConsoleSink) Name() string { return "console" }

// Send печатает заголовок со статусом и текст уведомления.
func (s *ConsoleSink) Send(_ context.Context, n Notification) error {
	status := "OK"
	if !n.Success {
		status = "ERROR"
	}
	_, err := fmt.Fprintf(s.w, "[%s] %s\n%s\n", status, n.Title, n.Message)
	return err
}
