package models

import (
	"time"

	"github.com/memoirbase/memoirbase/internal/metric"
	"gorm.io/datatypes"
)

// Plan limit value meaning no cap for a metric.
const PlanLimitUnlimited = metric.Unlimited

// Plan feature flag keys.
const (
	// FeatureDocumentExport enables document export.
	FeatureDocumentExport = "document_export"
	// FeaturePremiumTemplates enables premium book templates.
	FeaturePremiumTemplates = "premium_templates"
	// FeatureMultiDocument enables multiple concurrent documents.
	FeatureMultiDocument = "multi_document"
)

// Plan represents a subscription tier's limits and feature flags.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key         string  `gorm:"type:text;not null;uniqueIndex"`        // Stable tier key, e.g. "free".
	Name        string  `gorm:"type:varchar(255);not null"`            // Plan display name.
	MonthPrice  float64 `gorm:"type:decimal(10,2);not null;default:0"` // Monthly price.
	Description string  `gorm:"type:text"`                             // Plan description.

	Limits   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"` // Per-metric monthly limits, -1 = unlimited.
	Features datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"` // Boolean feature flags.

	SortOrder int  `gorm:"not null;default:0"`    // Display ordering weight.
	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan is active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// LimitFor returns the plan's monthly limit for a metric key.
// A missing entry means the metric is not granted at all (limit 0).
func (p *Plan) LimitFor(metricKey string) int64 {
	if p == nil || p.Limits == nil {
		return 0
	}
	return jsonMapInt(p.Limits, metricKey)
}

// FeatureEnabled reports whether a boolean feature flag is set.
func (p *Plan) FeatureEnabled(featureKey string) bool {
	if p == nil || p.Features == nil {
		return false
	}
	enabled, ok := p.Features[featureKey].(bool)
	return ok && enabled
}

// jsonMapInt coerces a JSON map value into an int64.
// Values decoded from jsonb arrive as float64; seeded values may be ints.
func jsonMapInt(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
