// Package scheduler запускает проходы reconciliation по расписанию.
//
// Структура:
//   - scheduler.go — Scheduler: cron + защита от перекрытия проходов
//   - cron.go      — парсинг cron-выражений и вычисление следующего запуска
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    CronExpr: "0 6 * * *",
//	    Location: loc,
//	    Job: func(ctx context.Context) {
//	        rec.Run(ctx, processes, time.Now().In(loc))
//	    },
//	    Logger: logger,
//	})
//
//	// Блокируется до отмены ctx
//	err = sched.Run(ctx)
//
// Distributed coordination не предусмотрена: gapfill serve рассчитан
// на один экземпляр.
package scheduler
