// Package cli реализует команды gapfill.
//
// # Команды
//
//   - run      — один проход: поиск пропусков, догрузка, итоговое уведомление
//   - check    — только поиск пропусков, без вызова процедур и уведомлений
//   - serve    — проходы по cron-расписанию, /healthz, /metrics и /report
//   - validate — проверка конфигурации без подключения к БД
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей *Globals — значения persistent-флагов корневой команды
// (--config, --json). Конфигурация загружается в RunE, после парсинга флагов.
//
// # Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, логи и сообщения — в stderr.
// Это позволяет использовать pipe: gapfill check --json | jq .
//
// # Коды выхода
//
// Ненулевой код возвращается, если конфигурация не найдена или некорректна
// и если в ней нет ни одного процесса. Неуспешные процедуры отражаются
// в уведомлении, но код выхода остаётся нулевым.
package cli
