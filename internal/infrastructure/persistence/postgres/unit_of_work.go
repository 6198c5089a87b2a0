// Package postgres - UnitOfWork implementation для PostgreSQL.
//
// Unit of Work Pattern:
// - Управляет границами транзакций
// - Автоматический ROLLBACK при ошибке или panic
// - Automatic COMMIT при успехе
//
// Usage:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    // все repository вызовы используют txCtx
//	    wallets, _ := walletRepo.LockWallets(txCtx, ids)
//	    ...
//	    return nil // COMMIT
//	})
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-gg/walletcore/internal/application/ports"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// Compile-time check
var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork реализует ports.UnitOfWork с PostgreSQL транзакциями.
//
// Isolation level: READ COMMITTED. Этого достаточно: exclusive row locks
// удерживаются от lock step до COMMIT, а блокируемое множество именовано
// primary key'ями, так что phantom reads не играют роли.
type UnitOfWork struct {
	pool           *pgxpool.Pool
	opts           pgx.TxOptions
	acquireTimeout time.Duration
}

// NewUnitOfWork создаёт UnitOfWork.
// acquireTimeout ограничивает ожидание соединения из исчерпанного пула;
// превышение возвращается как CONNECTION_TIMEOUT.
func NewUnitOfWork(pool *pgxpool.Pool, acquireTimeout time.Duration) *UnitOfWork {
	return &UnitOfWork{
		pool:           pool,
		opts:           pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		acquireTimeout: acquireTimeout,
	}
}

// Execute выполняет fn внутри транзакции.
//
// - fn возвращает nil: COMMIT
// - fn возвращает ошибку: ROLLBACK, ошибка классифицируется и уходит наверх
// - panic: ROLLBACK + re-panic
//
// Nested вызов (транзакция уже в context) просто выполняет fn:
// PostgreSQL не поддерживает true nested transactions.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	if hasTx(ctx) {
		return fn(ctx)
	}

	tx, err := u.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	txCtx := injectTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return classifyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// begin захватывает соединение и начинает транзакцию в пределах
// acquireTimeout.
func (u *UnitOfWork) begin(ctx context.Context) (pgx.Tx, error) {
	beginCtx := ctx
	var cancel context.CancelFunc
	if u.acquireTimeout > 0 {
		beginCtx, cancel = context.WithTimeout(ctx, u.acquireTimeout)
		defer cancel()
	}

	tx, err := u.pool.BeginTx(beginCtx, u.opts)
	if err != nil {
		// Таймаут именно захвата соединения, не отмена запроса вызывающим.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, domainerrors.Wrap(domainerrors.CodeConnectionTimeout,
				"timed out acquiring a database connection", err)
		}
		return nil, classifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	return tx, nil
}
