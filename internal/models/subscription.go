package models

import "time"

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

// SubscriptionStatus constants define subscription lifecycle states.
const (
	// SubscriptionStatusActive marks a subscription in good standing.
	SubscriptionStatusActive SubscriptionStatus = "active"
	// SubscriptionStatusCanceled marks a subscription canceled by the user.
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	// SubscriptionStatusPastDue marks a subscription with a failed renewal.
	SubscriptionStatusPastDue SubscriptionStatus = "past_due"
	// SubscriptionStatusExpired marks a subscription past its final period.
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// BillingCycle represents the renewal cadence of a subscription.
type BillingCycle string

// BillingCycle constants define renewal cadences.
const (
	// BillingCycleMonthly renews monthly.
	BillingCycleMonthly BillingCycle = "monthly"
	// BillingCycleYearly renews yearly.
	BillingCycleYearly BillingCycle = "yearly"
	// BillingCycleLifetime never renews.
	BillingCycleLifetime BillingCycle = "lifetime"
)

// Subscription links a user to their current plan. Exactly one row exists
// per user after first resolution; the external billing flow mutates plan
// and status, the metering engine only reads them.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID, one subscription per user.
	User   User   `gorm:"foreignKey:UserID"`    // Owning user record.

	PlanKey string             `gorm:"type:text;not null"`                 // Active plan tier key.
	Status  SubscriptionStatus `gorm:"type:text;not null;default:active"`  // Lifecycle state.
	Cycle   BillingCycle       `gorm:"type:text"`                          // Renewal cadence; empty for free tier.

	CurrentPeriodEnd *time.Time `gorm:""`                       // End of the paid period, if any.
	IsLifetime       bool       `gorm:"not null;default:false"` // Lifetime purchase flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
