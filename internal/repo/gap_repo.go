package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/gapfill/internal/domain"
)

// psql — построитель запросов с плейсхолдерами $1, $2...
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// GapRepo — доступ к проверочным таблицам и процедурам догрузки.
//
// Имена таблиц, колонок и процедур берутся из конфигурации и подставляются
// в текст запроса. Значения (даты) всегда передаются параметрами.
type GapRepo struct {
	pool *pgxpool.Pool

	closeOnce sync.Once
}

// NewGapRepo создаёт новый GapRepo.
func NewGapRepo(pool *pgxpool.Pool) *GapRepo {
	return &GapRepo{pool: pool}
}

// Connect открывает пул по DSN и возвращает готовый GapRepo.
func Connect(ctx context.Context, dsn string) (*GapRepo, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewGapRepo(pool), nil
}

// ExistingDates возвращает различные даты из table.column начиная с from.
// NULL игнорируются, timestamps приводятся к календарной дате.
func (r *GapRepo) ExistingDates(ctx context.Context, table, column string, from time.Time) ([]time.Time, error) {
	query, args, err := existingDatesQuery(table, column, from)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", table, column, wrapDBError(err))
	}

	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*time.Time, error) {
		var t *time.Time
		err := row.Scan(&t)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s.%s: %w", table, column, wrapDBError(err))
	}

	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		dates = append(dates, domain.Date(*v))
	}
	return dates, nil
}

// ExecuteProcedure вызывает процедуру с одним параметром типа date.
// Ошибка сервера возвращается как *DBError.
func (r *GapRepo) ExecuteProcedure(ctx context.Context, procedure string, day time.Time) error {
	_, err := r.pool.Exec(ctx, procedureCall(procedure), pgtype.Date{Time: domain.Date(day), Valid: true})
	if err != nil {
		return fmt.Errorf("call %s(%s): %w", procedure, domain.FormatDate(day), wrapDBError(err))
	}
	return nil
}

// Close закрывает пул. Повторные вызовы игнорируются.
func (r *GapRepo) Close() {
	r.closeOnce.Do(r.pool.Close)
}

// existingDatesQuery строит SELECT DISTINCT col FROM table WHERE col >= $1.
func existingDatesQuery(table, column string, from time.Time) (string, []any, error) {
	return psql.
		Select(column).
		Distinct().
		From(table).
		Where(sq.GtOrEq{column: domain.Date(from)}).
		ToSql()
}

// procedureCall строит CALL proc($1::date).
func procedureCall(procedure string) string {
	return fmt.Sprintf("CALL %s($1::date)", procedure)
}
