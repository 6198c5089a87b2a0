package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// GetBalanceUseCase reads a user's wallet balances. Point-in-time reads,
// no transaction and no locks.
type GetBalanceUseCase struct {
	wallets ports.WalletRepository
}

// NewGetBalanceUseCase creates the balance query.
func NewGetBalanceUseCase(wallets ports.WalletRepository) *GetBalanceUseCase {
	return &GetBalanceUseCase{wallets: wallets}
}

// Execute returns all of the user's balances, or the single balance when
// assetCode is given. NOT_FOUND when the user has no wallets at all.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, userIDStr, assetCode string) ([]dtos.WalletBalanceDTO, error) {
	if userIDStr == "" {
		return nil, domainerrors.NewValidation("user_id", "must not be empty")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, domainerrors.NewValidation("user_id", "must be a valid UUID")
	}

	if assetCode != "" {
		wallet, err := uc.wallets.FindByAccountAndAsset(ctx, userID, assetCode)
		if err != nil {
			return nil, err
		}
		return []dtos.WalletBalanceDTO{dtos.MapWalletToBalanceDTO(wallet)}, nil
	}

	wallets, err := uc.wallets.FindByAccountID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, domainerrors.NewNotFound("wallet", "user has no wallets")
	}
	return dtos.MapWalletsToBalanceDTOs(wallets), nil
}
