package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shaiso/gapfill/internal/domain"
	"github.com/shaiso/gapfill/internal/notify"
	"github.com/shaiso/gapfill/internal/repo"
	"github.com/shaiso/gapfill/internal/telemetry"
)

// Store — хранилище с проверочными таблицами и процедурами догрузки.
// Реализуется *repo.GapRepo.
type Store interface {
	ExistingDates(ctx context.Context, table, column string, from time.Time) ([]time.Time, error)
	ExecuteProcedure(ctx context.Context, procedure string, day time.Time) error
	Close()
}

// Connector открывает Store на время одного прохода.
type Connector func(ctx context.Context) (Store, error)

// Notifier доставляет уведомления. Реализуется *notify.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification)
}

// Reconciler выполняет проходы поиска и догрузки пропусков.
type Reconciler struct {
	connect     Connector
	notifier    Notifier
	logger      *slog.Logger
	notifyStart bool
	now         func() time.Time
}

// Config — конфигурация Reconciler.
type Config struct {
	Connect  Connector
	Notifier Notifier
	Logger   *slog.Logger

	// NotifyStart — отправлять уведомление "Process started" перед проходом.
	NotifyStart bool

	// Now — источник времени для отчёта (default: time.Now).
	Now func() time.Time
}

// New создаёт новый Reconciler.
func New(cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewDispatcher(logger)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Reconciler{
		connect:     cfg.Connect,
		notifier:    notifier,
		logger:      logger,
		notifyStart: cfg.NotifyStart,
		now:         now,
	}
}

// Run выполняет один проход для processes с окном, отсчитанным от today.
//
// Возвращает ErrNoProcesses, если список пуст. Во всех остальных случаях
// возвращает отчёт и nil, даже если часть процедур или весь проход
// завершились ошибкой: это видно по report.OK().
func (r *Reconciler) Run(ctx context.Context, processes []domain.ProcessDefinition, today time.Time) (*domain.RunReport, error) {
	report := domain.NewRunReport(r.now())
	logger := telemetry.WithRunID(r.logger, report.RunID.String())

	if len(processes) == 0 {
		msg := fmt.Sprintf("critical error: %v", ErrNoProcesses)
		logger.Error("no processes configured, aborting run")
		report.Fail(msg)
		report.Finish(r.now())
		r.notifier.Dispatch(context.WithoutCancel(ctx), notify.Notification{
			Title:   domain.TitleFailed,
			Message: msg,
			Success: false,
		})
		return report, ErrNoProcesses
	}

	if r.notifyStart {
		r.notifier.Dispatch(ctx, notify.Notification{
			Title:   domain.TitleStarted,
			Message: fmt.Sprintf("Checking missing days for %d process(es).", len(processes)),
			Success: true,
		})
	}

	logger.Info("run started", "processes", len(processes))
	r.reconcile(ctx, logger, processes, today, report)
	r.finalize(ctx, logger, report)

	return report, nil
}

// reconcile выполняет основной цикл. Любая фатальная ошибка, включая панику,
// записывается в report.GeneralError, уже накопленные результаты сохраняются.
func (r *Reconciler) reconcile(ctx context.Context, logger *slog.Logger, processes []domain.ProcessDefinition, today time.Time, report *domain.RunReport) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic recovered",
				"error", p,
				"stack", string(debug.Stack()),
			)
			report.Fail(fmt.Sprintf("unexpected error: %v", p))
		}
	}()

	store, err := r.connect(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		report.Fail(fmt.Sprintf("critical database error: %v", err))
		return
	}
	defer func() {
		store.Close()
		logger.Info("database connection closed")
	}()
	logger.Info("database connected")

	window := domain.NewDateWindow(today)
	logger.Info("checking window",
		"from", domain.FormatDate(window.Start()),
		"to", domain.FormatDate(window.End()),
	)

	for _, p := range processes {
		if err := ctx.Err(); err != nil {
			report.Fail(fmt.Sprintf("run cancelled: %v", err))
			return
		}
		if err := r.reconcileProcess(ctx, logger, store, p, window, report); err != nil {
			logger.Error("run aborted", "process", p.DisplayName(), "error", err)
			report.Fail(err.Error())
			return
		}
	}
}

// reconcileProcess обрабатывает один процесс. Ошибки процедур записываются
// в отчёт; возвращаемая ошибка означает, что проход нужно прервать.
func (r *Reconciler) reconcileProcess(ctx context.Context, logger *slog.Logger, store Store, p domain.ProcessDefinition, window domain.DateWindow, report *domain.RunReport) error {
	name := p.DisplayName()
	plog := telemetry.WithProcess(logger, name)

	if err := p.Validate(); err != nil {
		plog.Warn("skipping process with invalid definition", "error", err)
		report.Skip(name, err)
		telemetry.ProcessesSkipped.Inc()
		return nil
	}

	plog.Info("checking process", "table", p.Table, "column", p.Column)

	missing, err := findGaps(ctx, store, p, window)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		plog.Info("no missing days, table is up to date")
		return nil
	}

	telemetry.GapsDetected.WithLabelValues(name).Add(float64(len(missing)))
	plog.Info("missing days found", "dates", domain.FormatDates(missing))

	for _, day := range missing {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}

		res := domain.ExecutionResult{
			Process: name,
			Date:    day,
			Err:     store.ExecuteProcedure(ctx, p.Procedure, day),
		}
		report.Record(res)
		telemetry.ObserveCall(name, res.Success())

		if res.Success() {
			plog.Info("procedure executed", "procedure", p.Procedure, "date", domain.FormatDate(day))
			continue
		}
		logProcedureFailure(plog, p.Procedure, day, res.Err)
	}
	return nil
}

// findGaps возвращает дни окна, отсутствующие в таблице процесса.
func findGaps(ctx context.Context, store Store, p domain.ProcessDefinition, window domain.DateWindow) ([]time.Time, error) {
	existing, err := store.ExistingDates(ctx, p.Table, p.Column, window.Start())
	if err != nil {
		return nil, fmt.Errorf("%w for %s (%s.%s): %v", ErrQueryFailed, p.DisplayName(), p.Table, p.Column, err)
	}
	return window.Missing(existing), nil
}

func logProcedureFailure(logger *slog.Logger, procedure string, day time.Time, err error) {
	attrs := []any{
		"procedure", procedure,
		"date", domain.FormatDate(day),
		"error", err,
	}
	var dbErr *repo.DBError
	if errors.As(err, &dbErr) {
		attrs = append(attrs, "sqlstate", dbErr.SQLState)
	}
	logger.Error("procedure failed", attrs...)
}

// finalize фиксирует итог, пишет метрики и отправляет одно итоговое уведомление.
// Уведомление отправляется и после отмены ctx.
func (r *Reconciler) finalize(ctx context.Context, logger *slog.Logger, report *domain.RunReport) {
	report.Finish(r.now())
	telemetry.ObserveRun(report.OK(), report.Duration(), *report.FinishedAt)

	logger.Info("run finished",
		"ok", report.OK(),
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
		"skipped", len(report.Skipped),
		"general_error", report.GeneralError,
		"duration", report.Duration(),
	)

	r.notifier.Dispatch(context.WithoutCancel(ctx), notify.FromReport(report))
}
