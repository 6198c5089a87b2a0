package dtos

import (
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// MapWalletToBalanceDTO converts a wallet entity to a balance row.
func MapWalletToBalanceDTO(w *entities.Wallet) WalletBalanceDTO {
	return WalletBalanceDTO{
		WalletID:  w.ID(),
		AssetCode: w.AssetCode(),
		Balance:   w.Balance(),
		UpdatedAt: w.UpdatedAt(),
	}
}

// MapWalletsToBalanceDTOs converts a wallet list preserving order.
func MapWalletsToBalanceDTOs(wallets []*entities.Wallet) []WalletBalanceDTO {
	out := make([]WalletBalanceDTO, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, MapWalletToBalanceDTO(w))
	}
	return out
}

// MapRecordToHistoryDTO converts a ledger-joined transaction record.
func MapRecordToHistoryDTO(rec ports.TransactionRecord) TransactionHistoryDTO {
	return TransactionHistoryDTO{
		TransactionID: rec.Transaction.ID,
		Kind:          rec.Transaction.Kind,
		Status:        rec.Transaction.Status,
		EntryType:     rec.Entry.EntryType,
		Amount:        rec.Entry.Amount,
		BalanceBefore: rec.Entry.BalanceBefore,
		BalanceAfter:  rec.Entry.BalanceAfter,
		AssetCode:     rec.AssetCode,
		Description:   rec.Transaction.Description,
		CreatedAt:     rec.Transaction.CreatedAt,
	}
}
