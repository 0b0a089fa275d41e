package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect and seeds the
// default catalog.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Plan{},
		&models.Addon{},
		&models.Subscription{},
		&models.UserAddon{},
		&models.UsageRecord{},
		&models.Memory{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureDefaultAddons(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_plans_is_enabled_sort_order",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_plans_is_enabled_sort_order
				ON plans (is_enabled, sort_order ASC, month_price ASC)
			`,
		},
		{
			name: "idx_addons_is_enabled",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_addons_is_enabled
				ON addons (is_enabled)
			`,
		},
		{
			name: "idx_user_addons_user_expiry",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_user_addons_user_expiry
				ON user_addons (user_id, expires_at)
			`,
		},
		{
			name: "idx_memories_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_memories_user_id_created_at
				ON memories (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_usage_records_user_period",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_usage_records_user_period
				ON usage_records (user_id, period_start)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// FreePlanKey is the tier assigned to users without a purchase.
const FreePlanKey = "free"

// seedPlans is the default plan catalog created on first migration.
func seedPlans() []models.Plan {
	return []models.Plan{
		{
			Key:         FreePlanKey,
			Name:        "Free",
			MonthPrice:  0,
			Description: "Start your story",
			Limits: datatypes.JSONMap{
				"memories":      10,
				"ai_calls":      5,
				"photos":        20,
				"witnesses":     1,
				"audio_exports": 0,
			},
			Features: datatypes.JSONMap{
				models.FeatureDocumentExport:   false,
				models.FeaturePremiumTemplates: false,
				models.FeatureMultiDocument:    false,
			},
			SortOrder: 0,
		},
		{
			Key:         "storyteller",
			Name:        "Storyteller",
			MonthPrice:  9.9,
			Description: "For regular writers",
			Limits: datatypes.JSONMap{
				"memories":      200,
				"ai_calls":      100,
				"photos":        500,
				"witnesses":     10,
				"audio_exports": 5,
			},
			Features: datatypes.JSONMap{
				models.FeatureDocumentExport:   true,
				models.FeaturePremiumTemplates: false,
				models.FeatureMultiDocument:    false,
			},
			SortOrder: 1,
		},
		{
			Key:         "legacy",
			Name:        "Legacy",
			MonthPrice:  24.9,
			Description: "Everything, without limits",
			Limits: datatypes.JSONMap{
				"memories":      models.PlanLimitUnlimited,
				"ai_calls":      models.PlanLimitUnlimited,
				"photos":        models.PlanLimitUnlimited,
				"witnesses":     models.PlanLimitUnlimited,
				"audio_exports": models.PlanLimitUnlimited,
			},
			Features: datatypes.JSONMap{
				models.FeatureDocumentExport:   true,
				models.FeaturePremiumTemplates: true,
				models.FeatureMultiDocument:    true,
			},
			SortOrder: 2,
		},
	}
}

// seedAddons is the default addon catalog created on first migration.
func seedAddons() []models.Addon {
	thirtyDays := 30
	return []models.Addon{
		{
			Key:         "ai_pack_50",
			Name:        "AI Pack 50",
			Price:       4.9,
			Type:        models.AddonTypeConsumable,
			Description: "50 extra AI narrations",
			Grants:      datatypes.JSONMap{"ai_calls": 50},
			ValidDays:   &thirtyDays,
		},
		{
			Key:         "photo_pack_100",
			Name:        "Photo Pack 100",
			Price:       3.9,
			Type:        models.AddonTypeConsumable,
			Description: "100 extra photo uploads",
			Grants:      datatypes.JSONMap{"photos": 100},
			ValidDays:   &thirtyDays,
		},
		{
			Key:         "audio_export_5",
			Name:        "Audio Export Pack",
			Price:       6.9,
			Type:        models.AddonTypeConsumable,
			Description: "5 audiobook exports",
			Grants:      datatypes.JSONMap{"audio_exports": 5},
		},
	}
}

// ensureDefaultPlans seeds the plan catalog when tiers are absent.
func ensureDefaultPlans(conn *gorm.DB) error {
	for _, plan := range seedPlans() {
		var existing models.Plan
		errFind := conn.Where("key = ?", plan.Key).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: query plan %s: %w", plan.Key, errFind)
		}
		now := time.Now().UTC()
		plan.IsEnabled = true
		plan.CreatedAt = now
		plan.UpdatedAt = now
		if errCreate := conn.Create(&plan).Error; errCreate != nil {
			return fmt.Errorf("db: create plan %s: %w", plan.Key, errCreate)
		}
	}
	return nil
}

// ensureDefaultAddons seeds the addon catalog when entries are absent.
func ensureDefaultAddons(conn *gorm.DB) error {
	for _, addon := range seedAddons() {
		var existing models.Addon
		errFind := conn.Where("key = ?", addon.Key).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: query addon %s: %w", addon.Key, errFind)
		}
		now := time.Now().UTC()
		addon.IsEnabled = true
		addon.CreatedAt = now
		addon.UpdatedAt = now
		if errCreate := conn.Create(&addon).Error; errCreate != nil {
			return fmt.Errorf("db: create addon %s: %w", addon.Key, errCreate)
		}
	}
	return nil
}
