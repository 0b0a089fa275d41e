package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/metric"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AddonLedger reads owned addon instances and draws down their balances.
// Capacity and consumption apply the same non-expired filter so displayed
// capacity never exceeds what consumption can draw from.
type AddonLedger struct {
	db *gorm.DB
}

// NewAddonLedger constructs an AddonLedger.
func NewAddonLedger(conn *gorm.DB) *AddonLedger {
	return &AddonLedger{db: conn}
}

// Owned returns the user's non-expired addon instances, soonest expiry first.
func (l *AddonLedger) Owned(ctx context.Context, userID uint64, now time.Time) ([]models.UserAddon, error) {
	owned, err := ownedAddons(l.db.WithContext(ctx), userID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: addons for user %d: %v", ErrDataUnavailable, userID, err)
	}
	return owned, nil
}

// Capacity sums remaining balances for the metric over owned, non-expired
// addons.
func (l *AddonLedger) Capacity(ctx context.Context, userID uint64, m metric.Metric, now time.Time) (int64, error) {
	owned, err := l.Owned(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	var total int64
	for i := range owned {
		if remaining := owned[i].RemainingFor(m.String()); remaining > 0 {
			total += remaining
		}
	}
	return total, nil
}

// ConsumeFirst decrements the first owned, non-expired addon with a positive
// remaining balance for the metric and reports whether a draw happened. The
// decrement does not clamp at zero: a draw larger than the remaining balance
// leaves the stored value negative. Must run inside the caller's transaction.
func (l *AddonLedger) ConsumeFirst(ctx context.Context, tx *gorm.DB, userID uint64, m metric.Metric, amount int64, now time.Time) (bool, error) {
	owned, err := ownedAddons(db.WithRowLock(tx.WithContext(ctx)), userID, now)
	if err != nil {
		return false, fmt.Errorf("%w: lock addons for user %d: %v", ErrDataUnavailable, userID, err)
	}

	for i := range owned {
		instance := &owned[i]
		remaining := instance.RemainingFor(m.String())
		if remaining <= 0 {
			continue
		}
		if instance.Remaining == nil {
			instance.Remaining = datatypes.JSONMap{}
		}
		instance.Remaining[m.String()] = remaining - amount
		if errSave := tx.WithContext(ctx).
			Model(&models.UserAddon{}).
			Where("id = ?", instance.ID).
			Updates(map[string]any{
				"remaining":  instance.Remaining,
				"updated_at": now,
			}).Error; errSave != nil {
			return false, fmt.Errorf("%w: consume addon %d: %v", ErrDataUnavailable, instance.ID, errSave)
		}
		return true, nil
	}
	return false, nil
}

// Grant creates an owned instance of an addon, the record a completed
// purchase produces. The remaining balances start at the addon's grant
// values and expiry follows its validity window.
func (l *AddonLedger) Grant(ctx context.Context, userID uint64, addon *models.Addon, now time.Time) (*models.UserAddon, error) {
	remaining := datatypes.JSONMap{}
	for key, value := range addon.Grants {
		remaining[key] = value
	}

	instance := models.UserAddon{
		UserID:    userID,
		AddonID:   addon.ID,
		Remaining: remaining,
		GrantedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if addon.ValidDays != nil {
		expires := now.Add(time.Duration(*addon.ValidDays) * 24 * time.Hour)
		instance.ExpiresAt = &expires
	}
	if errCreate := l.db.WithContext(ctx).Create(&instance).Error; errCreate != nil {
		return nil, fmt.Errorf("%w: grant addon %d to user %d: %v", ErrDataUnavailable, addon.ID, userID, errCreate)
	}
	return &instance, nil
}

// ownedAddons applies the shared non-expired filter.
func ownedAddons(tx *gorm.DB, userID uint64, now time.Time) ([]models.UserAddon, error) {
	var owned []models.UserAddon
	if errFind := tx.
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Order("expires_at ASC NULLS LAST, id ASC").
		Find(&owned).Error; errFind != nil {
		return nil, errFind
	}
	return owned, nil
}
