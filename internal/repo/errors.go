package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBError — ошибка, возвращённая сервером БД.
type DBError struct {
	// SQLState — пятисимвольный код SQLSTATE.
	SQLState string

	// Message — текст ошибки сервера.
	Message string

	err error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("SQLSTATE %s: %s", e.SQLState, e.Message)
}

func (e *DBError) Unwrap() error {
	return e.err
}

// wrapDBError превращает *pgconn.PgError в *DBError.
// Остальные ошибки (сеть, контекст) возвращаются без изменений.
func wrapDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &DBError{SQLState: pgErr.Code, Message: pgErr.Message, err: err}
	}
	return err
}
