// Package postgres - WalletRepository: локатор кошельков и lock manager
// с детерминированным порядком захвата локов.
package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository реализует ports.WalletRepository.
//
// Баланс хранится как BIGINT в минимальных единицах asset'а.
// version растёт на единицу на каждую мутацию баланса.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const walletColumns = `w.id, w.account_id, w.asset_type_id, a.code,
	       w.balance, w.allow_negative, w.version, w.created_at, w.updated_at`

// FindByAccountAndAsset находит кошелёк аккаунта по asset code
// (JOIN с asset_types). Без блокировки.
func (r *WalletRepository) FindByAccountAndAsset(ctx context.Context, accountID uuid.UUID, assetCode string) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + walletColumns + `
		FROM wallets w
		JOIN asset_types a ON a.id = w.asset_type_id
		WHERE w.account_id = $1 AND a.code = $2
	`

	wallet, err := scanWallet(q.QueryRow(ctx, query, accountID, assetCode))
	if err != nil {
		if domainerrors.IsNotFound(err) {
			return nil, domainerrors.NewNotFound("wallet",
				fmt.Sprintf("account %s has no %s wallet", accountID, assetCode))
		}
		return nil, err
	}
	return wallet, nil
}

// FindByAccountID возвращает все кошельки аккаунта.
func (r *WalletRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + walletColumns + `
		FROM wallets w
		JOIN asset_types a ON a.id = w.asset_type_id
		WHERE w.account_id = $1
		ORDER BY a.code ASC
	`

	rows, err := q.Query(ctx, query, accountID)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to find wallets by account: %w", err))
	}
	defer rows.Close()

	return scanWallets(rows)
}

// LockWallets захватывает exclusive row locks на указанные кошельки.
//
// Алгоритм:
//  1. Дедупликация и сортировка id по byte order - тотальный порядок,
//     одинаковый для всех процессов.
//  2. Один SELECT ... ORDER BY id FOR UPDATE: строки блокируются в
//     возрастающем порядке id.
//  3. Если строк меньше, чем запрошено - NOT_FOUND.
//
// Каждый перевод блокирует любое множество кошельков в одной и той же
// глобальной последовательности, что исключает circular wait и, как
// следствие, deadlock между переводами.
//
// Вызов блокируется, пока конфликтующая транзакция не сделает COMMIT или
// ROLLBACK. FOR UPDATE работает только внутри транзакции - вызов вне
// UnitOfWork является ошибкой программирования.
func (r *WalletRepository) LockWallets(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*entities.Wallet, error) {
	tx := extractTx(ctx)
	if tx == nil {
		return nil, domainerrors.New(domainerrors.CodeInternal,
			"LockWallets called outside a transaction")
	}

	ids := dedupeSorted(walletIDs)
	if len(ids) == 0 {
		return map[uuid.UUID]*entities.Wallet{}, nil
	}

	query := `
		SELECT ` + walletColumns + `
		FROM wallets w
		JOIN asset_types a ON a.id = w.asset_type_id
		WHERE w.id = ANY($1)
		ORDER BY w.id ASC
		FOR UPDATE OF w
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to lock wallets: %w", err))
	}
	defer rows.Close()

	wallets, err := scanWallets(rows)
	if err != nil {
		return nil, err
	}
	if len(wallets) != len(ids) {
		return nil, domainerrors.NewNotFound("wallet",
			fmt.Sprintf("requested %d wallets, found %d", len(ids), len(wallets)))
	}

	result := make(map[uuid.UUID]*entities.Wallet, len(wallets))
	for _, w := range wallets {
		result[w.ID()] = w
	}
	return result, nil
}

// UpdateBalance записывает balance и version кошелька.
// Guard по version-1 - чистая перестраховка: кошелёк заблокирован, и
// никто другой не мог изменить строку.
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE wallets
		SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $5
	`

	tag, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.Balance(),
		wallet.Version(),
		wallet.UpdatedAt(),
		wallet.Version()-1,
	)
	if err != nil {
		return classifyError(fmt.Errorf("failed to update wallet balance: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.New(domainerrors.CodeInternal,
			fmt.Sprintf("wallet %s changed under an exclusive lock (expected version %d)",
				wallet.ID(), wallet.Version()-1))
	}
	return nil
}

// dedupeSorted убирает дубликаты и сортирует id по их natural byte order.
func dedupeSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

// scanWallet сканирует одну строку в Wallet entity.
func scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, accountID        uuid.UUID
		assetTypeID          int32
		assetCode            string
		balance, version     int64
		allowNegative        bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(
		&id,
		&accountID,
		&assetTypeID,
		&assetCode,
		&balance,
		&allowNegative,
		&version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.NewNotFound("wallet", "")
		}
		return nil, classifyError(fmt.Errorf("failed to scan wallet: %w", err))
	}

	return entities.ReconstructWallet(
		id, accountID, assetTypeID, assetCode,
		balance, allowNegative, version,
		createdAt, updatedAt,
	), nil
}

// scanWallets сканирует несколько строк.
func scanWallets(rows pgx.Rows) ([]*entities.Wallet, error) {
	var wallets []*entities.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(fmt.Errorf("error iterating wallet rows: %w", err))
	}
	return wallets, nil
}
