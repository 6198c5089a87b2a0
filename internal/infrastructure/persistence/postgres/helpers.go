// Package postgres - вспомогательные функции: транзакция в context,
// классификация ошибок PostgreSQL в таксономию domain/errors.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// querier - общий интерфейс pgx.Tx и pgxpool.Pool.
// Repositories работают через него и не знают, внутри транзакции они или нет.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey - ключ для хранения транзакции в context.
type txKey struct{}

// injectTx добавляет транзакцию в context.
// Используется UnitOfWork для передачи транзакции в repositories.
func injectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// extractTx извлекает транзакцию из context. nil если транзакции нет.
func extractTx(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil
	}
	return tx
}

// hasTx проверяет наличие транзакции в context.
func hasTx(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

// PostgreSQL SQLSTATE коды (из спецификации PostgreSQL)
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgQueryCanceled        = "57014" // statement_timeout
)

// isPgError проверяет SQLSTATE код ошибки.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == code
}

// isUniqueViolation проверяет нарушение UNIQUE constraint.
// constraintName - опциональная подстрока имени constraint'а.
func isUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgUniqueViolation {
		return false
	}
	if constraintName != "" {
		return strings.Contains(pgErr.ConstraintName, constraintName)
	}
	return true
}

// classifyError переводит ошибку хранилища в таксономию domain/errors.
// Уже классифицированные ошибки проходят насквозь.
//
// Маппинг:
//   - 23505 на idempotency key  -> DUPLICATE_TRANSACTION
//   - 23505 прочие, 23514, 23503 -> CONSTRAINT_VIOLATION
//   - 40P01                      -> DEADLOCK_DETECTED (retryable)
//   - 40001                      -> SERIALIZATION_FAILURE (retryable)
//   - 57014                      -> STATEMENT_TIMEOUT (retryable)
//   - остальное                  -> INTERNAL
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var domErr *domainerrors.Error
	if errors.As(err, &domErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "idempotency_key") {
				return domainerrors.Wrap(domainerrors.CodeDuplicateTransaction,
					"transaction with this idempotency key already exists", err)
			}
			return domainerrors.Wrap(domainerrors.CodeConstraintViolation,
				"unique constraint violated: "+pgErr.ConstraintName, err)
		case pgCheckViolation:
			return domainerrors.Wrap(domainerrors.CodeConstraintViolation,
				"check constraint violated: "+pgErr.ConstraintName, err)
		case pgForeignKeyViolation:
			return domainerrors.Wrap(domainerrors.CodeConstraintViolation,
				"foreign key constraint violated: "+pgErr.ConstraintName, err)
		case pgDeadlockDetected:
			return domainerrors.Wrap(domainerrors.CodeDeadlockDetected,
				"transaction aborted to break a deadlock", err)
		case pgSerializationFailure:
			return domainerrors.Wrap(domainerrors.CodeSerializationFailure,
				"could not serialize access due to concurrent update", err)
		case pgQueryCanceled:
			return domainerrors.Wrap(domainerrors.CodeStatementTimeout,
				"statement cancelled by statement_timeout", err)
		}
	}

	return domainerrors.NewInternal(err)
}
