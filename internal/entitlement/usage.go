package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/memoirbase/memoirbase/internal/metric"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PeriodStart pins a timestamp to the first instant of its calendar month
// in UTC. Check and Track share this boundary so both observe the same
// period even across a month rollover between the two calls.
func PeriodStart(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// UsageLedger maintains per-user, per-metric, per-period counters.
type UsageLedger struct {
	db *gorm.DB
}

// NewUsageLedger constructs a UsageLedger.
func NewUsageLedger(conn *gorm.DB) *UsageLedger {
	return &UsageLedger{db: conn}
}

// CurrentUsage returns the consumed amount for the current calendar-month
// period. A missing row is the defined empty state, not an error.
func (l *UsageLedger) CurrentUsage(ctx context.Context, userID uint64, m metric.Metric, now time.Time) (int64, error) {
	var record models.UsageRecord
	errFind := l.db.WithContext(ctx).
		Where("user_id = ? AND metric = ? AND period_start = ?", userID, m.String(), PeriodStart(now)).
		First(&record).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: usage for user %d metric %s: %v", ErrDataUnavailable, userID, m, errFind)
	}
	return record.Count, nil
}

// Record upserts the current-period row, creating it with count = amount or
// atomically incrementing an existing count. The increment happens in SQL so
// concurrent calls never lose updates.
func (l *UsageLedger) Record(ctx context.Context, tx *gorm.DB, userID uint64, m metric.Metric, amount int64, now time.Time) error {
	row := models.UsageRecord{
		UserID:      userID,
		Metric:      m.String(),
		PeriodStart: PeriodStart(now),
		Count:       amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if errUpsert := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "metric"}, {Name: "period_start"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      gorm.Expr("usage_records.count + excluded.count"),
				"updated_at": now,
			}),
		}).
		Create(&row).Error; errUpsert != nil {
		return fmt.Errorf("%w: record usage for user %d metric %s: %v", ErrDataUnavailable, userID, m, errUpsert)
	}
	return nil
}
