// Package entities contains the domain model of the wallet core.
//
// Wallet is the central aggregate: a per-account, per-asset balance
// container. Its balance and version are mutated only by the ledger writer,
// always under an exclusive row lock, so the in-memory entity never races
// with itself.
package entities

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// Wallet holds the balance of one account in one asset type.
//
// Invariants:
//   - at most one wallet per (accountID, assetTypeID) - UNIQUE constraint
//   - allowNegative == true OR balance >= 0 - CHECK constraint (defense in
//     depth; the transfer executor verifies the floor before writing)
//   - version increases by exactly one per balance mutation
type Wallet struct {
	id            uuid.UUID
	accountID     uuid.UUID
	assetTypeID   int32
	assetCode     string
	balance       int64 // smallest unit of the asset, never floating point
	allowNegative bool
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewWallet creates a wallet with a zero balance.
// System wallets (Treasury, Revenue) are created with allowNegative = true.
func NewWallet(accountID uuid.UUID, assetTypeID int32, assetCode string, allowNegative bool) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		id:            uuid.New(),
		accountID:     accountID,
		assetTypeID:   assetTypeID,
		assetCode:     assetCode,
		balance:       0,
		allowNegative: allowNegative,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
}

// ReconstructWallet rebuilds a wallet from persisted state.
// Used by the postgres layer; never applies business rules.
func ReconstructWallet(
	id uuid.UUID,
	accountID uuid.UUID,
	assetTypeID int32,
	assetCode string,
	balance int64,
	allowNegative bool,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:            id,
		accountID:     accountID,
		assetTypeID:   assetTypeID,
		assetCode:     assetCode,
		balance:       balance,
		allowNegative: allowNegative,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// Getters

func (w *Wallet) ID() uuid.UUID        { return w.id }
func (w *Wallet) AccountID() uuid.UUID { return w.accountID }
func (w *Wallet) AssetTypeID() int32   { return w.assetTypeID }
func (w *Wallet) AssetCode() string    { return w.assetCode }
func (w *Wallet) Balance() int64       { return w.balance }
func (w *Wallet) AllowNegative() bool  { return w.allowNegative }
func (w *Wallet) Version() int64       { return w.version }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// CanDebit reports whether debiting amount keeps the wallet above its floor.
func (w *Wallet) CanDebit(amount int64) bool {
	if w.allowNegative {
		return true
	}
	return w.balance >= amount
}

// Debit decreases the balance and bumps the version.
// Returns INSUFFICIENT_BALANCE when the wallet would go below its floor.
func (w *Wallet) Debit(amount int64) error {
	if amount <= 0 {
		return domainerrors.NewValidation("amount", "must be a positive integer")
	}
	if !w.CanDebit(amount) {
		return domainerrors.NewInsufficientBalance(w.id, amount, w.balance)
	}
	w.balance -= amount
	w.version++
	w.updatedAt = time.Now().UTC()
	return nil
}

// Credit increases the balance and bumps the version.
func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return domainerrors.NewValidation("amount", "must be a positive integer")
	}
	w.balance += amount
	w.version++
	w.updatedAt = time.Now().UTC()
	return nil
}
