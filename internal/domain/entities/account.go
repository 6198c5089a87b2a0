package entities

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes player accounts from platform-owned ones.
type AccountKind string

const (
	AccountKindUser   AccountKind = "USER"
	AccountKindSystem AccountKind = "SYSTEM"
)

// Well-known system account ids. Treasury is the single source of newly
// issued value, Revenue is the sink of spent value. Both are seeded by the
// initial migration and may hold negative balances.
var (
	TreasuryAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	RevenueAccountID  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// Account owns zero or more wallets, at most one per asset type.
type Account struct {
	ID        uuid.UUID
	Kind      AccountKind
	IsActive  bool
	CreatedAt time.Time
}

// IsSystem reports whether the account is platform-owned.
func (a *Account) IsSystem() bool {
	return a.Kind == AccountKindSystem
}
