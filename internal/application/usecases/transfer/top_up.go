package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// TopUpUseCase issues value from the Treasury into a user wallet.
// Top-ups are paid value (store purchases of coins); the ledger pair is a
// Debit on the Treasury wallet and a Credit on the user wallet.
type TopUpUseCase struct {
	exec *executor
}

// NewTopUpUseCase creates the top-up use case.
func NewTopUpUseCase(
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	ledger ports.LedgerRepository,
	idempotency ports.IdempotencyRepository,
	publisher ports.EventPublisher,
	uow ports.UnitOfWork,
	idempotencyTTL time.Duration,
	logger *slog.Logger,
) *TopUpUseCase {
	return &TopUpUseCase{
		exec: newExecutor(wallets, transactions, ledger, idempotency, publisher, uow, idempotencyTTL, logger),
	}
}

// Execute performs the top-up.
func (uc *TopUpUseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	return uc.exec.execute(ctx, entities.TransactionKindTopUp, directionFromTreasury, cmd)
}
