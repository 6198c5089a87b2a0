// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events
// - Raised after the owning transaction commits
// - Consumers react asynchronously (analytics, notifications)
// - Delivery is best-effort; the ledger is the source of truth
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/domain/entities"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.eventID }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

// Event type constants.
const (
	EventTypeTransferCompleted = "transfer.completed"
)

// TransferCompleted is raised after a transfer transaction commits.
type TransferCompleted struct {
	BaseEvent
	TransactionID  uuid.UUID                `json:"transaction_id"`
	Kind           entities.TransactionKind `json:"kind"`
	SourceWalletID uuid.UUID                `json:"source_wallet_id"`
	DestWalletID   uuid.UUID                `json:"dest_wallet_id"`
	AssetCode      string                   `json:"asset_code"`
	Amount         int64                    `json:"amount"`
}

// NewTransferCompleted creates the post-commit transfer event.
func NewTransferCompleted(tx *entities.Transaction, assetCode string) *TransferCompleted {
	return &TransferCompleted{
		BaseEvent:      newBaseEvent(EventTypeTransferCompleted, tx.ID),
		TransactionID:  tx.ID,
		Kind:           tx.Kind,
		SourceWalletID: tx.SourceWalletID,
		DestWalletID:   tx.DestWalletID,
		AssetCode:      assetCode,
		Amount:         tx.Amount,
	}
}
