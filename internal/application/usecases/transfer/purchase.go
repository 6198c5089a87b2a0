package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// PurchaseUseCase spends value from a user wallet into the Revenue account.
// The user wallet is the debit side here, so this is the operation the
// balance floor actually guards: a user can never spend below zero.
type PurchaseUseCase struct {
	exec *executor
}

// NewPurchaseUseCase creates the purchase use case.
func NewPurchaseUseCase(
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	ledger ports.LedgerRepository,
	idempotency ports.IdempotencyRepository,
	publisher ports.EventPublisher,
	uow ports.UnitOfWork,
	idempotencyTTL time.Duration,
	logger *slog.Logger,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		exec: newExecutor(wallets, transactions, ledger, idempotency, publisher, uow, idempotencyTTL, logger),
	}
}

// Execute performs the purchase.
func (uc *PurchaseUseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	return uc.exec.execute(ctx, entities.TransactionKindPurchase, directionToRevenue, cmd)
}
