package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserAddon records a user's owned instance of an addon with its own
// depleting balance and expiry. Rows are never deleted; expired instances
// are filtered out of capacity and consumption.
type UserAddon struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"` // Owning user record.

	AddonID uint64 `gorm:"not null;index"`     // Addon definition ID.
	Addon   Addon  `gorm:"foreignKey:AddonID"` // Addon definition record.

	Remaining datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"` // Per-metric remaining balances.

	GrantedAt time.Time  `gorm:"not null"` // Purchase completion time.
	ExpiresAt *time.Time `gorm:"index"`    // Expiry time; nil = non-expiring.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// RemainingFor returns the remaining balance for a metric key.
func (ua *UserAddon) RemainingFor(metricKey string) int64 {
	if ua == nil || ua.Remaining == nil {
		return 0
	}
	return jsonMapInt(ua.Remaining, metricKey)
}

// Expired reports whether the instance is past its expiry at the given time.
func (ua *UserAddon) Expired(now time.Time) bool {
	return ua != nil && ua.ExpiresAt != nil && ua.ExpiresAt.Before(now)
}
