package entities

import "time"

// AssetType describes a kind of virtual currency (coins, gems, points).
// Asset types are created administratively and referenced forever once used;
// amounts are always expressed in the asset's smallest unit.
type AssetType struct {
	ID        int32
	Code      string // globally unique short code, e.g. "GOLD_COINS"
	Name      string
	IsActive  bool
	CreatedAt time.Time
}
