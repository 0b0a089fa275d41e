package entitlement

import (
	"context"
	"time"

	"github.com/memoirbase/memoirbase/internal/metric"
	"gorm.io/gorm"
)

// ConsumptionPolicy is the two-phase consumption ordering applied on Track.
// Check treats the plan allowance as primary so displayed usage reflects
// plan consumption, while Track draws from purchased addons first so a user
// holding credits is never blocked by an exhausted plan counter. The
// asymmetry is deliberate; keeping both steps named makes it testable in
// isolation.
type ConsumptionPolicy struct {
	addons *AddonLedger
	usage  *UsageLedger
}

// NewConsumptionPolicy constructs the addon-first consumption policy.
func NewConsumptionPolicy(addons *AddonLedger, usage *UsageLedger) ConsumptionPolicy {
	return ConsumptionPolicy{addons: addons, usage: usage}
}

// DrawFromAddons attempts the addon draw step and reports whether an addon
// absorbed the consumption.
func (p ConsumptionPolicy) DrawFromAddons(ctx context.Context, tx *gorm.DB, userID uint64, m metric.Metric, amount int64, now time.Time) (bool, error) {
	return p.addons.ConsumeFirst(ctx, tx, userID, m, amount, now)
}

// RecordAgainstPlan applies the plan-counter step.
func (p ConsumptionPolicy) RecordAgainstPlan(ctx context.Context, tx *gorm.DB, userID uint64, m metric.Metric, amount int64, now time.Time) error {
	return p.usage.Record(ctx, tx, userID, m, amount, now)
}

// Consume runs both steps in order: addon draw first, plan counter as the
// fallback.
func (p ConsumptionPolicy) Consume(ctx context.Context, tx *gorm.DB, userID uint64, m metric.Metric, amount int64, now time.Time) error {
	drawn, errDraw := p.DrawFromAddons(ctx, tx, userID, m, amount, now)
	if errDraw != nil {
		return errDraw
	}
	if drawn {
		return nil
	}
	return p.RecordAgainstPlan(ctx, tx, userID, m, amount, now)
}
