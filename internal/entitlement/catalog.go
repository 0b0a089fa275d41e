package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
)

// Catalog reads plan and addon reference data.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog constructs a Catalog.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ListPlans returns enabled plans ascending by monthly price.
func (c *Catalog) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if errFind := c.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Order("month_price ASC, sort_order ASC").
		Find(&plans).Error; errFind != nil {
		return nil, fmt.Errorf("%w: list plans: %v", ErrDataUnavailable, errFind)
	}
	return plans, nil
}

// ListAddons returns enabled addon catalog entries.
func (c *Catalog) ListAddons(ctx context.Context) ([]models.Addon, error) {
	var addons []models.Addon
	if errFind := c.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Order("price ASC").
		Find(&addons).Error; errFind != nil {
		return nil, fmt.Errorf("%w: list addons: %v", ErrDataUnavailable, errFind)
	}
	return addons, nil
}

// PlanByKey resolves one plan by its stable tier key. A missing plan is
// ErrPlanNotFound; transport failures are ErrDataUnavailable.
func (c *Catalog) PlanByKey(ctx context.Context, key string) (*models.Plan, error) {
	var plan models.Plan
	errFind := c.db.WithContext(ctx).Where("key = ?", key).First(&plan).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, key)
		}
		return nil, fmt.Errorf("%w: plan %s: %v", ErrDataUnavailable, key, errFind)
	}
	return &plan, nil
}

// AddonByKey resolves one enabled addon by its catalog key.
func (c *Catalog) AddonByKey(ctx context.Context, key string) (*models.Addon, error) {
	var addon models.Addon
	errFind := c.db.WithContext(ctx).Where("key = ? AND is_enabled = ?", key, true).First(&addon).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAddonNotFound, key)
		}
		return nil, fmt.Errorf("%w: addon %s: %v", ErrDataUnavailable, key, errFind)
	}
	return &addon, nil
}
