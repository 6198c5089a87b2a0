package entities

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// TransactionKind classifies a value transfer by its business meaning.
type TransactionKind string

const (
	TransactionKindTopUp    TransactionKind = "TOP_UP"
	TransactionKindBonus    TransactionKind = "BONUS"
	TransactionKindPurchase TransactionKind = "PURCHASE"
)

// TransactionStatus is the lifecycle state of a transaction.
// The transfer executor only ever writes COMPLETED rows; the remaining
// states exist for the persisted layout and future reversal tooling.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// MaxIdempotencyKeyLength bounds the caller-supplied idempotency token.
const MaxIdempotencyKeyLength = 255

// Transaction is the immutable record of one committed value transfer.
// idempotencyKey is globally unique when non-empty (UNIQUE constraint);
// that constraint closes the write-write race the idempotency cache
// cannot see.
type Transaction struct {
	ID             uuid.UUID
	IdempotencyKey string // empty means the caller supplied no key
	Kind           TransactionKind
	Status         TransactionStatus
	SourceWalletID uuid.UUID
	DestWalletID   uuid.UUID
	AssetTypeID    int32
	Amount         int64
	Description    string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// NewTransaction creates a completed transaction record.
func NewTransaction(
	kind TransactionKind,
	sourceWalletID, destWalletID uuid.UUID,
	assetTypeID int32,
	amount int64,
	idempotencyKey, description string,
	metadata map[string]interface{},
) (*Transaction, error) {
	if amount <= 0 {
		return nil, domainerrors.NewValidation("amount", "must be a positive integer")
	}
	if sourceWalletID == destWalletID {
		return nil, domainerrors.NewValidation("dest_wallet_id", "source and destination wallets must differ")
	}
	if len(idempotencyKey) > MaxIdempotencyKeyLength {
		return nil, domainerrors.NewValidation("idempotency_key", "must be at most 255 characters")
	}
	return &Transaction{
		ID:             uuid.New(),
		IdempotencyKey: idempotencyKey,
		Kind:           kind,
		Status:         TransactionStatusCompleted,
		SourceWalletID: sourceWalletID,
		DestWalletID:   destWalletID,
		AssetTypeID:    assetTypeID,
		Amount:         amount,
		Description:    description,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
