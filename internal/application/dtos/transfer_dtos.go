// Package dtos contains the commands and results crossing the application
// boundary. DTOs are plain serializable structures; domain entities never
// leave the application layer.
package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// TransferCommand is the uniform input of the three mutating operations
// (top-up, bonus, purchase).
type TransferCommand struct {
	UserID         string                 `json:"user_id"`
	AssetCode      string                 `json:"asset_code"`
	Amount         int64                  `json:"amount"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	Description    string                 `json:"description,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// WalletBalanceChange describes one wallet's balance before and after
// a transfer.
type WalletBalanceChange struct {
	WalletID      uuid.UUID `json:"wallet_id"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
}

// TransferResult is the success payload of a transfer.
// The same serialized form is cached by the idempotency layer, so replays
// return a byte-identical payload with Idempotent = true.
type TransferResult struct {
	TransactionID uuid.UUID                `json:"transaction_id"`
	Kind          entities.TransactionKind `json:"kind"`
	AssetCode     string                   `json:"asset_code"`
	Amount        int64                    `json:"amount"`
	Source        WalletBalanceChange      `json:"source"`
	Destination   WalletBalanceChange      `json:"destination"`
	Description   string                   `json:"description,omitempty"`
	Idempotent    bool                     `json:"idempotent"`
	CreatedAt     time.Time                `json:"created_at"`
}

// WalletBalanceDTO is one row of a getBalance response.
type WalletBalanceDTO struct {
	WalletID  uuid.UUID `json:"wallet_id"`
	AssetCode string    `json:"asset_code"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryQuery parameterizes the transaction history listing.
type HistoryQuery struct {
	UserID    string `json:"user_id"`
	AssetCode string `json:"asset_code,omitempty"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// TransactionHistoryDTO is one row of the ledger-joined history.
type TransactionHistoryDTO struct {
	TransactionID uuid.UUID                  `json:"transaction_id"`
	Kind          entities.TransactionKind   `json:"kind"`
	Status        entities.TransactionStatus `json:"status"`
	EntryType     entities.EntryType         `json:"entry_type"`
	Amount        int64                      `json:"amount"`
	BalanceBefore int64                      `json:"balance_before"`
	BalanceAfter  int64                      `json:"balance_after"`
	AssetCode     string                     `json:"asset_code"`
	Description   string                     `json:"description,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}
