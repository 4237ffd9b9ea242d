// Пакет repository — слой доступа к данным PostgreSQL
// (представители, ученики, авторизации, документы, аудит).
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// constraintActiveAuthorization — частичный уникальный индекс
// из migrations/001_initial.up.sql.
const constraintActiveAuthorization = "uniq_authorizations_active_student"

// TxRunner выполняет группу операций репозиториев в одной транзакции
// (upsert представителя и ученика при отправке формы).
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner поверх пула.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn в транзакции READ COMMITTED: ошибка fn откатывает
// транзакцию, успех коммитит её.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
	if err != nil {
		return fmt.Errorf("транзакция: %w", err)
	}
	return nil
}

// violatedConstraint возвращает имя нарушенного ограничения уникальности.
// ok == false, если err не является unique_violation PostgreSQL.
func violatedConstraint(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// isActiveAuthorizationConflict — у ученика уже есть активная авторизация
// (частичный уникальный индекс по student_id WHERE status = 'active').
func isActiveAuthorizationConflict(err error) bool {
	c, ok := violatedConstraint(err)
	return ok && c == constraintActiveAuthorization
}
