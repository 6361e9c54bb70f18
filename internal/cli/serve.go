package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/gapfill/internal/domain"
	"github.com/shaiso/gapfill/internal/scheduler"
)

// shutdownTimeout — сколько ждать завершения HTTP-запросов при остановке.
const shutdownTimeout = 10 * time.Second

// NewServeCmd создаёт команду запуска по расписанию.
func NewServeCmd(g *Globals) *cobra.Command {
	var opts appOptions
	var cronExpr string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run reconciliation on a cron schedule and expose /healthz and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, g, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if cronExpr != "" {
				a.cfg.Schedule.Cron = cronExpr
			}
			if a.cfg.Schedule.Cron == "" {
				return fmt.Errorf("cron expression is required: set agendamento.cron, GAPFILL_CRON or --cron")
			}

			// Без процессов расписание бессмысленно: сообщаем и выходим
			if len(a.cfg.Processes()) == 0 {
				_, err := a.rec.Run(ctx, nil, a.today())
				return err
			}

			return serve(ctx, a, runNow)
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression, overrides agendamento.cron")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run once immediately at startup")
	cmd.Flags().BoolVar(&opts.console, "console", false, "Also print notifications to stdout")
	cmd.Flags().BoolVar(&opts.notifyStart, "notify-start", false, "Send a notification before each run")

	return cmd
}

// serve запускает планировщик и HTTP-сервер до отмены ctx.
func serve(ctx context.Context, a *app, runNow bool) error {
	var last atomic.Pointer[domain.RunReport]

	job := func(ctx context.Context) {
		report, err := a.rec.Run(ctx, a.cfg.Processes(), a.today())
		if err != nil {
			a.logger.Error("run failed", "error", err)
		}
		if report != nil {
			last.Store(report)
		}
	}

	sched, err := scheduler.New(scheduler.Config{
		CronExpr: a.cfg.Schedule.Cron,
		Location: a.loc,
		Job:      job,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.Metrics.Listen,
		Handler:           newMux(&last),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		a.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	grp.Go(func() error {
		if runNow {
			job(gctx)
		}
		return sched.Run(gctx)
	})

	return grp.Wait()
}

// newMux создаёт HTTP mux: /healthz, /metrics, /report.
func newMux(last *atomic.Pointer[domain.RunReport]) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/report", func(w http.ResponseWriter, _ *http.Request) {
		report := last.Load()
		if report == nil {
			http.Error(w, "no run finished yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	})
	return mux
}
