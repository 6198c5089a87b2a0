// Package postgres - LedgerRepository: записи двойной бухгалтерии.
// Записи append-only: ни UPDATE, ни DELETE не существует по построению.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// Compile-time check
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository реализует ports.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository создаёт LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *LedgerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// AppendPair вставляет Debit и Credit одной командой.
// Вызывается только внутри транзакции перевода - атомарность с
// transaction row и мутациями балансов обеспечивает UnitOfWork.
func (r *LedgerRepository) AppendPair(ctx context.Context, debit, credit *entities.LedgerEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO ledger_entries (
			id, transaction_id, wallet_id, entry_type,
			amount, balance_before, balance_after, created_at
		) VALUES
			($1, $2, $3, $4, $5, $6, $7, $8),
			($9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := q.Exec(ctx, query,
		debit.ID, debit.TransactionID, debit.WalletID, string(debit.EntryType),
		debit.Amount, debit.BalanceBefore, debit.BalanceAfter, debit.CreatedAt,
		credit.ID, credit.TransactionID, credit.WalletID, string(credit.EntryType),
		credit.Amount, credit.BalanceBefore, credit.BalanceAfter, credit.CreatedAt,
	)
	if err != nil {
		return classifyError(fmt.Errorf("failed to insert ledger entries: %w", err))
	}
	return nil
}

// ListByWallet возвращает записи кошелька, новее - раньше.
func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, transaction_id, wallet_id, entry_type,
		       amount, balance_before, balance_after, created_at
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := q.Query(ctx, query, walletID, offset, limit)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to query ledger entries: %w", err))
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var e entities.LedgerEntry
		var entryType string
		err := rows.Scan(
			&e.ID, &e.TransactionID, &e.WalletID, &entryType,
			&e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.CreatedAt,
		)
		if err != nil {
			return nil, classifyError(fmt.Errorf("failed to scan ledger entry: %w", err))
		}
		e.EntryType = entities.EntryType(entryType)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(fmt.Errorf("error iterating ledger rows: %w", err))
	}
	return entries, nil
}
