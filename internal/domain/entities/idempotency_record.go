package entities

import "time"

// IdempotencyRecord caches the serialized response of a completed transfer
// keyed by the caller-supplied idempotency token. Records are logically
// absent after ExpiresAt; a background sweeper deletes them physically.
type IdempotencyRecord struct {
	Key        string
	Response   []byte // serialized TransferResult
	StatusCode int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the record is logically absent at t.
func (r *IdempotencyRecord) IsExpired(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}
