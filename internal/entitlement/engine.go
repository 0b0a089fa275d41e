package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/memoirbase/memoirbase/internal/metric"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
)

// Source identifies which capacity pool backed a check decision.
type Source string

// Source constants name the capacity pools.
const (
	// SourcePlan means the decision came from the plan allowance.
	SourcePlan Source = "plan"
	// SourceAddon means addon capacity kept the action allowed.
	SourceAddon Source = "addon"
	// SourceUnlimited means the plan has no cap for the metric.
	SourceUnlimited Source = "unlimited"
)

// CheckResult is the outcome of an entitlement check. Limit reports the
// aggregate ceiling (plan limit plus addon capacity when addons back the
// decision), not the remaining addon balance.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Limit   int64  `json:"limit"`
	Used    int64  `json:"used"`
	Source  Source `json:"source"`
}

// MetricSummary reports one metric's consumption state for display.
type MetricSummary struct {
	Metric        metric.Metric `json:"metric"`
	Used          int64         `json:"used"`
	Limit         int64         `json:"limit"`
	AddonCapacity int64         `json:"addon_capacity"`
}

// Engine composes the subscription resolver, plan catalog, addon ledger and
// usage ledger to answer entitlement checks and record consumption. It is
// the sole writer of usage records and addon balances.
type Engine struct {
	db       *gorm.DB
	catalog  *Catalog
	resolver *Resolver
	addons   *AddonLedger
	usage    *UsageLedger
	policy   ConsumptionPolicy

	nowFn func() time.Time
}

// NewEngine constructs an Engine over the shared connection.
func NewEngine(conn *gorm.DB) *Engine {
	addons := NewAddonLedger(conn)
	usage := NewUsageLedger(conn)
	return &Engine{
		db:       conn,
		catalog:  NewCatalog(conn),
		resolver: NewResolver(conn),
		addons:   addons,
		usage:    usage,
		policy:   NewConsumptionPolicy(addons, usage),
		nowFn:    time.Now,
	}
}

// Catalog exposes the plan/addon catalog reads.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Resolver exposes the subscription resolver.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Addons exposes the addon ledger.
func (e *Engine) Addons() *AddonLedger { return e.addons }

// Usage exposes the usage ledger.
func (e *Engine) Usage() *UsageLedger { return e.usage }

// Check decides whether the user may perform one more unit of the metric.
// It fails closed only when no plan resolves; every other failure
// propagates so callers can distinguish "limit reached" from system error.
func (e *Engine) Check(ctx context.Context, userID uint64, m metric.Metric) (CheckResult, error) {
	if !m.Valid() {
		return CheckResult{}, fmt.Errorf("%w: %q", metric.ErrInvalidMetric, m)
	}

	plan, err := e.resolvePlan(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return CheckResult{Allowed: false, Source: SourcePlan}, nil
		}
		return CheckResult{}, err
	}

	now := e.nowFn()
	used, errUsage := e.usage.CurrentUsage(ctx, userID, m, now)
	if errUsage != nil {
		return CheckResult{}, errUsage
	}

	limit := plan.LimitFor(m.String())
	if limit == metric.Unlimited {
		return CheckResult{Allowed: true, Limit: metric.Unlimited, Used: used, Source: SourceUnlimited}, nil
	}
	if used < limit {
		return CheckResult{Allowed: true, Limit: limit, Used: used, Source: SourcePlan}, nil
	}

	capacity, errCapacity := e.addons.Capacity(ctx, userID, m, now)
	if errCapacity != nil {
		return CheckResult{}, errCapacity
	}
	if capacity > 0 {
		return CheckResult{Allowed: true, Limit: limit + capacity, Used: used, Source: SourceAddon}, nil
	}
	return CheckResult{Allowed: false, Limit: limit, Used: used, Source: SourcePlan}, nil
}

// Track durably records that a gated action occurred. It is a recording
// step, not a re-check: callers invoke it only after the action succeeded.
// Consumption is addon-first per the ConsumptionPolicy.
func (e *Engine) Track(ctx context.Context, userID uint64, m metric.Metric, amount int64) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", metric.ErrInvalidMetric, m)
	}
	if amount <= 0 {
		amount = 1
	}

	// Subscription must resolve so a brand-new user gets a row before the
	// first consumption lands.
	if _, errResolve := e.resolver.Resolve(ctx, userID); errResolve != nil {
		return errResolve
	}

	now := e.nowFn()
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return e.policy.Consume(ctx, tx, userID, m, amount, now)
	})
}

// Summary reports per-metric usage, plan limits and addon capacity for the
// user, suitable for a usage dashboard.
func (e *Engine) Summary(ctx context.Context, userID uint64) ([]MetricSummary, error) {
	plan, err := e.resolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.nowFn()
	summaries := make([]MetricSummary, 0, len(metric.All()))
	for _, m := range metric.All() {
		used, errUsage := e.usage.CurrentUsage(ctx, userID, m, now)
		if errUsage != nil {
			return nil, errUsage
		}
		capacity, errCapacity := e.addons.Capacity(ctx, userID, m, now)
		if errCapacity != nil {
			return nil, errCapacity
		}
		summaries = append(summaries, MetricSummary{
			Metric:        m,
			Used:          used,
			Limit:         plan.LimitFor(m.String()),
			AddonCapacity: capacity,
		})
	}
	return summaries, nil
}

// resolvePlan resolves the user's subscription and its plan definition.
func (e *Engine) resolvePlan(ctx context.Context, userID uint64) (*models.Plan, error) {
	sub, errResolve := e.resolver.Resolve(ctx, userID)
	if errResolve != nil {
		return nil, errResolve
	}
	return e.catalog.PlanByKey(ctx, sub.PlanKey)
}
