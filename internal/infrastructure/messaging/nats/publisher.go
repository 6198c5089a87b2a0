// Package nats publishes domain events to NATS subjects.
//
// Publishing is best-effort and happens after the database transaction
// commits: a lost event never implies a lost transfer, consumers that
// need a complete stream reconcile against the ledger.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/events"
)

// Compile-time check
var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher publishes domain events to NATS.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

// Connect dials the NATS server and returns a Publisher. Events are
// published to "<prefix>.<event type>", e.g. "walletcore.transfer.completed".
func Connect(url, subjectPrefix string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("walletcore"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}, nil
}

// envelope is the wire form of a published event.
type envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Publish serializes the event and publishes it to its subject.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	data, err := json.Marshal(envelope{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID().String(),
		OccurredAt:  event.OccurredAt(),
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectPrefix + "." + event.EventType()
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("subject", subject),
		slog.String("event_id", event.EventID().String()),
	)
	return nil
}

// Close drains in-flight messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
