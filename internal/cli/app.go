package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shaiso/gapfill/internal/config"
	"github.com/shaiso/gapfill/internal/mq"
	"github.com/shaiso/gapfill/internal/notify"
	"github.com/shaiso/gapfill/internal/reconciler"
	"github.com/shaiso/gapfill/internal/repo"
)

// Globals — значения persistent-флагов корневой команды.
type Globals struct {
	ConfigPath string
	JSON       bool
	Logger     *slog.Logger

	// Stdout и Stderr — куда писать вывод команд (default: os.Stdout, os.Stderr).
	Stdout io.Writer
	Stderr io.Writer
}

// output создаёт Output с учётом --json.
func (g *Globals) output() *Output {
	return newOutputTo(g.Stdout, g.Stderr, g.JSON)
}

// appOptions — флаги команд, влияющие на сборку приложения.
type appOptions struct {
	console     bool
	notifyStart bool

	// noSinks — не подключать sinks (команды без уведомлений).
	noSinks bool
}

// app — собранные зависимости одной команды.
type app struct {
	cfg        *config.Config
	loc        *time.Location
	logger     *slog.Logger
	dispatcher *notify.Dispatcher
	rec        *reconciler.Reconciler

	mqConn *mq.Connection
}

// newApp загружает конфигурацию и собирает reconciler с sinks уведомлений.
// Ошибка конфигурации фатальна: уведомление отправить ещё некуда.
func newApp(ctx context.Context, g *Globals, opts appOptions) (*app, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger.Info("configuration loaded",
		"path", g.ConfigPath,
		"processes", len(cfg.Processes()),
		"database", cfg.Database.Redacted(),
	)

	a := &app{
		cfg:        cfg,
		loc:        loc,
		logger:     logger,
		dispatcher: notify.NewDispatcher(logger),
	}
	if !opts.noSinks {
		a.setupSinks(ctx, opts)
	}

	a.rec = reconciler.New(reconciler.Config{
		Connect:     connector(cfg.Database.DSN()),
		Notifier:    a.dispatcher,
		Logger:      logger,
		NotifyStart: opts.notifyStart,
	})
	return a, nil
}

// setupSinks подключает Teams, RabbitMQ и консоль. Недоступный RabbitMQ
// не мешает запуску: отчёт уйдёт в остальные sinks.
func (a *app) setupSinks(ctx context.Context, opts appOptions) {
	n := a.cfg.Notifications

	if n.Teams.WebhookURL != "" {
		a.dispatcher.Add(notify.NewTeamsSink(n.Teams.WebhookURL))
	}

	if n.AMQP.URL != "" {
		conn, err := mq.NewConnection(n.AMQP.URL, a.logger)
		if err != nil {
			a.logger.Warn("RabbitMQ not available, reports will not be published", "error", err)
		} else {
			exchange := mq.Exchange(n.AMQP.Exchange)
			if err := mq.SetupTopology(ctx, conn, exchange); err != nil {
				a.logger.Warn("failed to setup topology", "error", err)
			}
			a.mqConn = conn
			a.dispatcher.Add(notify.NewAMQPSink(mq.NewPublisher(conn, exchange, a.logger)))
		}
	}

	if opts.console {
		a.dispatcher.Add(notify.NewConsoleSink(nil))
	}

	if a.dispatcher.Len() == 0 {
		a.logger.Warn("no notification sink configured, notifications will not be sent")
	}
}

// today возвращает текущий момент в таймзоне конфигурации.
func (a *app) today() time.Time {
	return time.Now().In(a.loc)
}

// Close освобождает соединения sinks.
func (a *app) Close() {
	if a.mqConn != nil {
		if err := a.mqConn.Close(); err != nil {
			a.logger.Warn("failed to close RabbitMQ connection", "error", err)
		}
	}
}

// connector открывает GapRepo на время прохода.
func connector(dsn string) reconciler.Connector {
	return func(ctx context.Context) (reconciler.Store, error) {
		r, err := repo.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		return r, nil
	}
}
