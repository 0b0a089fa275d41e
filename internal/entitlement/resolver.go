package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolver produces the current subscription for a user, lazily provisioning
// a free-tier row on first access.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a Resolver.
func NewResolver(conn *gorm.DB) *Resolver {
	return &Resolver{db: conn}
}

// Resolve returns the user's subscription, creating a free-tier active row
// when none exists. Concurrent first resolutions for the same user are safe:
// the insert is guarded by the unique index on user_id and conflict losers
// re-read the winner's row.
func (r *Resolver) Resolve(ctx context.Context, userID uint64) (models.Subscription, error) {
	var sub models.Subscription
	errFind := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errFind == nil {
		return sub, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.Subscription{}, fmt.Errorf("%w: subscription for user %d: %v", ErrDataUnavailable, userID, errFind)
	}

	now := time.Now().UTC()
	fresh := models.Subscription{
		UserID:    userID,
		PlanKey:   db.FreePlanKey,
		Status:    models.SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&fresh)
	if res.Error != nil && !isUniqueViolation(res.Error) {
		return models.Subscription{}, fmt.Errorf("%w: user %d: %v", ErrSubscriptionResolution, userID, res.Error)
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return fresh, nil
	}

	// Lost the create race; the winner's row must exist now.
	if errReread := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; errReread != nil {
		return models.Subscription{}, fmt.Errorf("%w: user %d: reread after conflict: %v", ErrSubscriptionResolution, userID, errReread)
	}
	return sub, nil
}

// Assign sets the user's plan, creating the subscription row when the user
// has never resolved one. The assignment always reactivates the subscription.
func (r *Resolver) Assign(ctx context.Context, userID uint64, planKey string, cycle models.BillingCycle, periodEnd *time.Time, lifetime bool) error {
	now := time.Now().UTC()
	sub := models.Subscription{
		UserID:           userID,
		PlanKey:          planKey,
		Status:           models.SubscriptionStatusActive,
		Cycle:            cycle,
		CurrentPeriodEnd: periodEnd,
		IsLifetime:       lifetime,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	errUpsert := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"plan_key":           planKey,
				"status":             models.SubscriptionStatusActive,
				"cycle":              cycle,
				"current_period_end": periodEnd,
				"is_lifetime":        lifetime,
				"updated_at":         now,
			}),
		}).
		Create(&sub).Error
	if errUpsert != nil {
		return fmt.Errorf("assign plan %q to user %d: %w", planKey, userID, errUpsert)
	}
	return nil
}

// isUniqueViolation reports whether the error is a uniqueness conflict on
// either supported dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
