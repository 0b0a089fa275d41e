package models

import "time"

// UsageRecord is a per-user, per-metric, per-period consumption counter.
// The (user_id, metric, period_start) triple is unique; counts only grow
// within a period and reset by rolling over to a new period row.
type UsageRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID      uint64    `gorm:"not null;uniqueIndex:idx_usage_records_user_metric_period"` // Owning user ID.
	Metric      string    `gorm:"type:text;not null;uniqueIndex:idx_usage_records_user_metric_period"` // Metered action key.
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_usage_records_user_metric_period"` // First instant of the calendar month.

	Count int64 `gorm:"not null;default:0"` // Consumed amount within the period.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
