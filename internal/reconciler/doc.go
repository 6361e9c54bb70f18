// Package reconciler находит пропущенные дни в проверочных таблицах
// и догружает их вызовом хранимой процедуры.
//
// Один проход (Run):
//
//	Init → ConnectDB → {ForEachProcess → {QueryGaps → ForEachMissingDate → InvokeProcedure}} → Finalize/Notify → Done
//
// Окно проверки общее для всех процессов: [today-7 .. today-1].
// Процессы и даты обрабатываются строго последовательно на одном
// соединении: процедуры догрузки не рассчитаны на параллельный запуск.
//
// Ошибки:
//   - пустой список процессов — ErrNoProcesses, одно фатальное уведомление,
//     к БД не подключаемся;
//   - неполное определение процесса — предупреждение, процесс пропускается;
//   - ошибка процедуры для одного дня — записывается в Failed, цикл продолжается;
//   - ошибка подключения, запроса существующих дат, отмена контекста или
//     паника — записывается в GeneralError, оставшаяся работа прерывается.
//
// Финализация выполняется всегда: соединение закрывается ровно один раз,
// отправляется ровно одно итоговое уведомление.
//
// Использование:
//
//	rec := reconciler.New(reconciler.Config{
//	    Connect:  connect,     // открывает Store
//	    Notifier: dispatcher,  // *notify.Dispatcher
//	    Logger:   logger,
//	})
//
//	report, err := rec.Run(ctx, cfg.Processes(), time.Now())
package reconciler
