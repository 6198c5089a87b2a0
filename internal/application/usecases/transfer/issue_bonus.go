package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// IssueBonusUseCase grants promotional value from the Treasury into a user
// wallet. Identical flow to a top-up; only the recorded kind differs, so
// reporting can separate paid from promotional issuance.
type IssueBonusUseCase struct {
	exec *executor
}

// NewIssueBonusUseCase creates the bonus use case.
func NewIssueBonusUseCase(
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	ledger ports.LedgerRepository,
	idempotency ports.IdempotencyRepository,
	publisher ports.EventPublisher,
	uow ports.UnitOfWork,
	idempotencyTTL time.Duration,
	logger *slog.Logger,
) *IssueBonusUseCase {
	return &IssueBonusUseCase{
		exec: newExecutor(wallets, transactions, ledger, idempotency, publisher, uow, idempotencyTTL, logger),
	}
}

// Execute performs the bonus grant.
func (uc *IssueBonusUseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	return uc.exec.execute(ctx, entities.TransactionKindBonus, directionFromTreasury, cmd)
}
