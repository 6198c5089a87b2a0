package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// ListTransactionsUseCase returns the ledger-joined transaction history of
// a user, newest first.
type ListTransactionsUseCase struct {
	transactions ports.TransactionRepository
	defaultLimit int
	maxLimit     int
}

// NewListTransactionsUseCase creates the history query with the configured
// paging bounds.
func NewListTransactionsUseCase(transactions ports.TransactionRepository, defaultLimit, maxLimit int) *ListTransactionsUseCase {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &ListTransactionsUseCase{
		transactions: transactions,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Execute returns one history page. Limit is clamped to [1, maxLimit] with
// the configured default for 0; negative offsets are treated as 0.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, query dtos.HistoryQuery) ([]dtos.TransactionHistoryDTO, error) {
	if query.UserID == "" {
		return nil, domainerrors.NewValidation("user_id", "must not be empty")
	}
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, domainerrors.NewValidation("user_id", "must be a valid UUID")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = uc.defaultLimit
	}
	if limit > uc.maxLimit {
		limit = uc.maxLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	records, err := uc.transactions.HistoryByAccount(ctx, userID, query.AssetCode, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dtos.TransactionHistoryDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, dtos.MapRecordToHistoryDTO(rec))
	}
	return out, nil
}
