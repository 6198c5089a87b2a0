// Package postgres - TransactionRepository: бизнес-транзакции и история
// операций (JOIN с ledger_entries).
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// Compile-time check
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository реализует ports.TransactionRepository.
//
// Особенности:
// - idempotency_key хранится как NULLable UNIQUE: NULL'ы не конфликтуют,
//   непустые ключи глобально уникальны
// - metadata хранится как JSONB
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository создаёт TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create вставляет транзакцию. Строка неизменяема после вставки.
// Коллизия idempotency_key классифицируется в DUPLICATE_TRANSACTION -
// recovery path в orchestrator'е перечитает idempotency cache.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metadataJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "failed to marshal metadata", err)
	}

	// Пустой ключ пишем как NULL, чтобы не участвовал в UNIQUE
	var idempotencyKey *string
	if tx.IdempotencyKey != "" {
		idempotencyKey = &tx.IdempotencyKey
	}

	query := `
		INSERT INTO transactions (
			id, idempotency_key, kind, status,
			source_wallet_id, dest_wallet_id, asset_type_id,
			amount, description, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = q.Exec(ctx, query,
		tx.ID,
		idempotencyKey,
		string(tx.Kind),
		string(tx.Status),
		tx.SourceWalletID,
		tx.DestWalletID,
		tx.AssetTypeID,
		tx.Amount,
		tx.Description,
		metadataJSON,
		tx.CreatedAt,
	)
	if err != nil {
		return classifyError(fmt.Errorf("failed to insert transaction: %w", err))
	}
	return nil
}

const transactionColumns = `t.id, t.idempotency_key, t.kind, t.status,
	       t.source_wallet_id, t.dest_wallet_id, t.asset_type_id,
	       t.amount, t.description, t.metadata, t.created_at`

// FindByIdempotencyKey возвращает транзакцию по ключу. (nil, nil) если нет.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		WHERE t.idempotency_key = $1
	`

	tx, err := scanTransaction(q.QueryRow(ctx, query, key))
	if err != nil {
		if domainerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// HistoryByAccount возвращает историю аккаунта: транзакции, JOIN'ом
// связанные с ledger entry на кошельке этого аккаунта. Новее - раньше.
func (r *TransactionRepository) HistoryByAccount(ctx context.Context, accountID uuid.UUID, assetCode string, limit, offset int) ([]ports.TransactionRecord, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + transactionColumns + `,
		       e.id, e.wallet_id, e.entry_type, e.amount,
		       e.balance_before, e.balance_after, e.created_at,
		       a.code
		FROM ledger_entries e
		JOIN transactions t ON t.id = e.transaction_id
		JOIN wallets w ON w.id = e.wallet_id
		JOIN asset_types a ON a.id = t.asset_type_id
		WHERE w.account_id = $1
	`
	args := []any{accountID}
	if assetCode != "" {
		query += " AND a.code = $2"
		args = append(args, assetCode)
	}
	query += fmt.Sprintf(" ORDER BY t.created_at DESC, e.id DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to query transaction history: %w", err))
	}
	defer rows.Close()

	var records []ports.TransactionRecord
	for rows.Next() {
		var (
			txID, sourceWalletID, destWalletID uuid.UUID
			idempotencyKey                     *string
			kindStr, statusStr                 string
			assetTypeID                        int32
			amount                             int64
			description                        string
			metadataJSON                       []byte
			txCreatedAt                        time.Time

			entryID, entryWalletID      uuid.UUID
			entryTypeStr                string
			entryAmount                 int64
			balanceBefore, balanceAfter int64
			entryCreatedAt              time.Time

			code string
		)

		err := rows.Scan(
			&txID, &idempotencyKey, &kindStr, &statusStr,
			&sourceWalletID, &destWalletID, &assetTypeID,
			&amount, &description, &metadataJSON, &txCreatedAt,
			&entryID, &entryWalletID, &entryTypeStr, &entryAmount,
			&balanceBefore, &balanceAfter, &entryCreatedAt,
			&code,
		)
		if err != nil {
			return nil, classifyError(fmt.Errorf("failed to scan history row: %w", err))
		}

		tx, err := reconstructTransaction(txID, idempotencyKey, kindStr, statusStr,
			sourceWalletID, destWalletID, assetTypeID, amount, description, metadataJSON, txCreatedAt)
		if err != nil {
			return nil, err
		}

		records = append(records, ports.TransactionRecord{
			Transaction: tx,
			Entry: &entities.LedgerEntry{
				ID:            entryID,
				TransactionID: txID,
				WalletID:      entryWalletID,
				EntryType:     entities.EntryType(entryTypeStr),
				Amount:        entryAmount,
				BalanceBefore: balanceBefore,
				BalanceAfter:  balanceAfter,
				CreatedAt:     entryCreatedAt,
			},
			AssetCode: code,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(fmt.Errorf("error iterating history rows: %w", err))
	}
	return records, nil
}

// scanTransaction сканирует одну строку в Transaction entity.
func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, sourceWalletID, destWalletID uuid.UUID
		idempotencyKey                   *string
		kindStr, statusStr               string
		assetTypeID                      int32
		amount                           int64
		description                      string
		metadataJSON                     []byte
		createdAt                        time.Time
	)

	err := row.Scan(
		&id, &idempotencyKey, &kindStr, &statusStr,
		&sourceWalletID, &destWalletID, &assetTypeID,
		&amount, &description, &metadataJSON, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.NewNotFound("transaction", "")
		}
		return nil, classifyError(fmt.Errorf("failed to scan transaction: %w", err))
	}

	return reconstructTransaction(id, idempotencyKey, kindStr, statusStr,
		sourceWalletID, destWalletID, assetTypeID, amount, description, metadataJSON, createdAt)
}

// reconstructTransaction восстанавливает entity из колонок.
func reconstructTransaction(
	id uuid.UUID,
	idempotencyKey *string,
	kindStr, statusStr string,
	sourceWalletID, destWalletID uuid.UUID,
	assetTypeID int32,
	amount int64,
	description string,
	metadataJSON []byte,
	createdAt time.Time,
) (*entities.Transaction, error) {
	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "failed to unmarshal metadata", err)
		}
	}

	key := ""
	if idempotencyKey != nil {
		key = *idempotencyKey
	}

	return &entities.Transaction{
		ID:             id,
		IdempotencyKey: key,
		Kind:           entities.TransactionKind(kindStr),
		Status:         entities.TransactionStatus(statusStr),
		SourceWalletID: sourceWalletID,
		DestWalletID:   destWalletID,
		AssetTypeID:    assetTypeID,
		Amount:         amount,
		Description:    description,
		Metadata:       metadata,
		CreatedAt:      createdAt,
	}, nil
}
