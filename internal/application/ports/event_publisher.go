package ports

import (
	"context"

	"github.com/arcadia-gg/walletcore/internal/domain/events"
)

// EventPublisher - контракт для публикации domain events.
//
// Публикация происходит после COMMIT и является best-effort:
// ошибка публикации логируется, но не влияет на результат перевода.
// Consumers обязаны быть идемпотентными (at-least-once delivery).
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
