// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// Контракт для всех repository методов: context может нести открытую
// транзакцию (см. UnitOfWork). Ни один repository не открывает свою
// транзакцию - владелец транзакции всегда orchestrator.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// WalletRepository - контракт для поиска, блокировки и изменения кошельков.
type WalletRepository interface {
	// FindByAccountAndAsset возвращает кошелёк аккаунта для asset code
	// (JOIN с asset_types). NOT_FOUND если кошелька нет. Без блокировки:
	// это read для резолва id перед захватом локов.
	FindByAccountAndAsset(ctx context.Context, accountID uuid.UUID, assetCode string) (*entities.Wallet, error)

	// FindByAccountID возвращает все кошельки аккаунта (для getBalance).
	FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.Wallet, error)

	// LockWallets захватывает exclusive row locks на указанные кошельки
	// в детерминированном глобальном порядке (byte order id) и возвращает
	// их текущее состояние. NOT_FOUND если хотя бы один id не существует.
	// Блокируется, пока конфликтующая транзакция не завершится.
	LockWallets(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*entities.Wallet, error)

	// UpdateBalance записывает balance и version кошелька.
	// Guard по version-1: строка должна быть в ожидаемой версии
	// (всегда выполняется, т.к. кошелёк заблокирован).
	UpdateBalance(ctx context.Context, wallet *entities.Wallet) error
}

// TransactionRecord - транзакция вместе с ledger entry на кошельке
// пользователя (для истории операций).
type TransactionRecord struct {
	Transaction *entities.Transaction
	Entry       *entities.LedgerEntry
	AssetCode   string
}

// TransactionRepository - контракт для бизнес-транзакций.
type TransactionRepository interface {
	// Create вставляет транзакцию со статусом COMPLETED.
	// На коллизию idempotency_key возвращает DUPLICATE_TRANSACTION:
	// orchestrator перечитывает idempotency cache и возвращает кэш.
	Create(ctx context.Context, tx *entities.Transaction) error

	// FindByIdempotencyKey возвращает транзакцию по ключу идемпотентности.
	// (nil, nil) если не найдена.
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error)

	// HistoryByAccount возвращает историю аккаунта новее-раньше,
	// опционально отфильтрованную по asset code.
	HistoryByAccount(ctx context.Context, accountID uuid.UUID, assetCode string, limit, offset int) ([]TransactionRecord, error)
}

// LedgerRepository - контракт для записей двойной бухгалтерии.
type LedgerRepository interface {
	// AppendPair вставляет пару Debit/Credit атомарно с транзакцией
	// вызывающего. Записи неизменяемы.
	AppendPair(ctx context.Context, debit, credit *entities.LedgerEntry) error

	// ListByWallet возвращает записи кошелька, новее-раньше.
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error)
}

// IdempotencyRepository - контракт для кэша идемпотентных ответов.
type IdempotencyRepository interface {
	// Lookup возвращает запись, если ключ существует и не истёк.
	// (nil, nil) если записи нет.
	Lookup(ctx context.Context, key string) (*entities.IdempotencyRecord, error)

	// Store вставляет запись. На коллизию ключа - silent no-op
	// (INSERT ... ON CONFLICT DO NOTHING).
	Store(ctx context.Context, record *entities.IdempotencyRecord) error

	// PurgeExpired удаляет физически истёкшие записи. Возвращает количество.
	PurgeExpired(ctx context.Context) (int64, error)
}
