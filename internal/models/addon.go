package models

import (
	"time"

	"gorm.io/datatypes"
)

// AddonType distinguishes consumable credit packs from permanent unlocks.
type AddonType string

// AddonType constants define purchasable addon kinds.
const (
	// AddonTypeConsumable is a depleting credit pack.
	AddonTypeConsumable AddonType = "consumable"
	// AddonTypeFeature is a permanent feature unlock.
	AddonTypeFeature AddonType = "feature"
)

// Addon represents a purchasable credit pack or feature unlock definition.
type Addon struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key         string    `gorm:"type:text;not null;uniqueIndex"`        // Stable addon key, e.g. "ai_pack_50".
	Name        string    `gorm:"type:varchar(255);not null"`            // Display name.
	Price       float64   `gorm:"type:decimal(10,2);not null;default:0"` // One-off price.
	Type        AddonType `gorm:"type:text;not null"`                    // consumable or feature.
	Description string    `gorm:"type:text"`                             // Addon description.

	Grants datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"` // Per-metric grant values.

	ValidDays *int   `gorm:""`          // Validity window in days; nil = non-expiring.
	PriceRef  string `gorm:"type:text"` // External payment-processor price reference.

	IsEnabled bool `gorm:"not null;default:true"` // Whether the addon is purchasable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// GrantFor returns the addon's grant value for a metric key.
func (a *Addon) GrantFor(metricKey string) int64 {
	if a == nil || a.Grants == nil {
		return 0
	}
	return jsonMapInt(a.Grants, metricKey)
}
