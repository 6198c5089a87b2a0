package entities

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// TestNewTransaction tests transaction creation
func TestNewTransaction(t *testing.T) {
	source := uuid.New()
	dest := uuid.New()

	tx, err := NewTransaction(TransactionKindTopUp, source, dest, 1, 500, "key-1", "store purchase", nil)
	if err != nil {
		t.Fatalf("NewTransaction() error = %v, want nil", err)
	}

	if tx.ID == uuid.Nil {
		t.Error("Transaction ID should not be nil")
	}
	if tx.Status != TransactionStatusCompleted {
		t.Errorf("Status = %v, want COMPLETED", tx.Status)
	}
	if tx.Kind != TransactionKindTopUp {
		t.Errorf("Kind = %v, want TOP_UP", tx.Kind)
	}
	if tx.Amount != 500 {
		t.Errorf("Amount = %v, want 500", tx.Amount)
	}
}

// TestNewTransaction_Validation tests input preconditions
func TestNewTransaction_Validation(t *testing.T) {
	source := uuid.New()
	dest := uuid.New()

	tests := []struct {
		name   string
		source uuid.UUID
		dest   uuid.UUID
		amount int64
		key    string
	}{
		{"zero amount", source, dest, 0, ""},
		{"negative amount", source, dest, -10, ""},
		{"same source and destination", source, source, 100, ""},
		{"oversized idempotency key", source, dest, 100, strings.Repeat("k", MaxIdempotencyKeyLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(TransactionKindPurchase, tt.source, tt.dest, 1, tt.amount, tt.key, "", nil)
			if !domainerrors.IsValidation(err) {
				t.Errorf("error code = %v, want VALIDATION", domainerrors.CodeOf(err))
			}
		})
	}
}

// TestNewTransaction_MaxLengthKey tests the boundary key length
func TestNewTransaction_MaxLengthKey(t *testing.T) {
	key := strings.Repeat("k", MaxIdempotencyKeyLength)
	_, err := NewTransaction(TransactionKindBonus, uuid.New(), uuid.New(), 1, 1, key, "", nil)
	if err != nil {
		t.Errorf("NewTransaction() with 255-char key error = %v, want nil", err)
	}
}

// TestNewLedgerEntry tests ledger entry construction
func TestNewLedgerEntry(t *testing.T) {
	txID := uuid.New()
	walletID := uuid.New()

	entry := NewLedgerEntry(txID, walletID, EntryTypeDebit, 100, 500, 400)

	if entry.ID == uuid.Nil {
		t.Error("Entry ID should not be nil")
	}
	if !entry.IsDebit() {
		t.Error("IsDebit() should be true for a DEBIT entry")
	}
	if entry.BalanceBefore-entry.Amount != entry.BalanceAfter {
		t.Errorf("balance continuity broken: %d - %d != %d",
			entry.BalanceBefore, entry.Amount, entry.BalanceAfter)
	}
}
