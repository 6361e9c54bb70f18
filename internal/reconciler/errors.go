package reconciler

import "errors"

// Ошибки reconciliation.
var (
	// ErrNoProcesses — в конфигурации нет ни одного процесса.
	ErrNoProcesses = errors.New("no process defined in objetos_banco")

	// ErrQueryFailed — не удалось получить существующие даты.
	ErrQueryFailed = errors.New("query existing dates failed")
)
