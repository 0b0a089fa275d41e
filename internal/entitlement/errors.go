// Package entitlement decides whether metered actions are permitted and
// records consumption against plan allowances or purchased addons.
package entitlement

import "errors"

var (
	// ErrDataUnavailable indicates the persistence layer could not be
	// reached or returned a transport error.
	ErrDataUnavailable = errors.New("entitlement: data unavailable")

	// ErrSubscriptionResolution indicates lazy creation of a default
	// subscription failed for a reason other than a benign uniqueness
	// conflict.
	ErrSubscriptionResolution = errors.New("entitlement: subscription resolution failed")

	// ErrPlanNotFound indicates the subscription references a plan key
	// absent from the catalog.
	ErrPlanNotFound = errors.New("entitlement: plan not found")

	// ErrAddonNotFound indicates an addon key absent from the catalog.
	ErrAddonNotFound = errors.New("entitlement: addon not found")
)
