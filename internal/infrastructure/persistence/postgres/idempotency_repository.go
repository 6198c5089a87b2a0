// Package postgres - IdempotencyRepository: кэш ответов по ключу
// идемпотентности.
//
// Lookup выполняется внутри той же транзакции, что и сам перевод, поэтому
// кэшированный ответ коммитится вместе с side effects. Гонку двух
// одновременных запросов с одним ключом закрывает UNIQUE constraint на
// transactions.idempotency_key - эти два механизма избыточны намеренно.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// Compile-time check
var _ ports.IdempotencyRepository = (*IdempotencyRepository)(nil)

// IdempotencyRepository реализует ports.IdempotencyRepository.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository создаёт IdempotencyRepository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *IdempotencyRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Lookup возвращает запись, если ключ существует и не истёк.
// Истёкшие записи логически отсутствуют ещё до физического удаления.
func (r *IdempotencyRepository) Lookup(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT key, response, status_code, created_at, expires_at
		FROM idempotency_records
		WHERE key = $1 AND expires_at > NOW()
	`

	var record entities.IdempotencyRecord
	err := q.QueryRow(ctx, query, key).Scan(
		&record.Key,
		&record.Response,
		&record.StatusCode,
		&record.CreatedAt,
		&record.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError(fmt.Errorf("failed to lookup idempotency record: %w", err))
	}
	return &record, nil
}

// Store вставляет запись. Коллизия ключа - silent no-op:
// побеждает первая зафиксированная запись.
func (r *IdempotencyRepository) Store(ctx context.Context, record *entities.IdempotencyRecord) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO idempotency_records (key, response, status_code, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`

	_, err := q.Exec(ctx, query,
		record.Key,
		record.Response,
		record.StatusCode,
		record.CreatedAt,
		record.ExpiresAt,
	)
	if err != nil {
		return classifyError(fmt.Errorf("failed to store idempotency record: %w", err))
	}
	return nil
}

// PurgeExpired физически удаляет истёкшие записи.
// Вызывается фоновым sweeper'ом, вне транзакций переводов.
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	q := r.getQuerier(ctx)

	tag, err := q.Exec(ctx, `DELETE FROM idempotency_records WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, classifyError(fmt.Errorf("failed to purge idempotency records: %w", err))
	}
	return tag.RowsAffected(), nil
}
