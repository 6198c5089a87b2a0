package entities

import (
	"time"

	"github.com/google/uuid"
)

// EntryType marks the side of a double-entry pair.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// LedgerEntry is one side of a double-entry ledger pair.
// IMMUTABLE: entries are never updated or deleted. Exactly two entries exist
// per transaction - one Debit on the source wallet, one Credit on the
// destination - written in the same atomic action as the transaction row.
//
// Continuity invariant: for consecutive entries on one wallet,
// BalanceBefore of the later equals BalanceAfter of the earlier.
type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	WalletID      uuid.UUID
	EntryType     EntryType
	Amount        int64 // always positive
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}

// NewLedgerEntry creates one side of a double-entry pair.
func NewLedgerEntry(transactionID, walletID uuid.UUID, entryType EntryType, amount, balanceBefore, balanceAfter int64) *LedgerEntry {
	return &LedgerEntry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		WalletID:      walletID,
		EntryType:     entryType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now().UTC(),
	}
}

// IsDebit reports whether this entry is the debit side.
func (e *LedgerEntry) IsDebit() bool {
	return e.EntryType == EntryTypeDebit
}
