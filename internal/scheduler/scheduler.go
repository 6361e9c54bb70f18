package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNoJob — не передана функция прохода.
var ErrNoJob = errors.New("scheduler job is required")

// Job — один проход, запускаемый по расписанию.
type Job func(ctx context.Context)

// Scheduler запускает Job по cron-выражению.
//
// Если предыдущий проход ещё выполняется, очередной тик пропускается:
// проходы никогда не перекрываются.
type Scheduler struct {
	cron     *cron.Cron
	entry    cron.EntryID
	cronExpr string
	location *time.Location
	job      Job
	logger   *slog.Logger

	ctx context.Context
}

// Config — конфигурация Scheduler.
type Config struct {
	CronExpr string
	Location *time.Location // default: time.Local
	Job      Job
	Logger   *slog.Logger
}

// New создаёт Scheduler и проверяет cron-выражение.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Job == nil {
		return nil, ErrNoJob
	}
	if err := ValidateCronExpr(cfg.CronExpr); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cronExpr: cfg.CronExpr,
		location: loc,
		job:      cfg.Job,
		logger:   logger,
		ctx:      context.Background(),
	}

	cl := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	entry, err := s.cron.AddFunc(cfg.CronExpr, s.tick)
	if err != nil {
		return nil, err
	}
	s.entry = entry

	return s, nil
}

// tick выполняет один проход.
func (s *Scheduler) tick() {
	started := time.Now()
	s.logger.Info("scheduled run started", "cron", s.cronExpr)

	s.job(s.ctx)

	s.logger.Info("scheduled run completed",
		"duration", time.Since(started),
		"next", s.Next(),
	)
}

// Next возвращает время следующего запуска.
// До Run возвращает время, вычисленное от текущего момента.
func (s *Scheduler) Next() time.Time {
	if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
		return next
	}
	next, _ := NextRun(s.cronExpr, time.Now(), s.location)
	return next
}

// Run запускает расписание и блокируется до отмены ctx.
// После отмены дожидается завершения текущего прохода.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started",
		"cron", s.cronExpr,
		"timezone", s.location.String(),
		"next", s.Next(),
	)

	<-ctx.Done()

	s.logger.Info("scheduler stopping, waiting for running job")
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}
