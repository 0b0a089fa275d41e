// Package metric defines the closed set of metered actions.
package metric

import (
	"errors"
	"fmt"
	"strings"
)

// Metric identifies a countable action gated by subscription tier.
type Metric string

// Metered actions.
const (
	// Memories counts authored memory entries.
	Memories Metric = "memories"
	// AICalls counts narrative AI invocations.
	AICalls Metric = "ai_calls"
	// Photos counts photo uploads.
	Photos Metric = "photos"
	// Witnesses counts witness invitations.
	Witnesses Metric = "witnesses"
	// AudioExports counts audio export jobs.
	AudioExports Metric = "audio_exports"
)

// Unlimited is the plan limit value meaning no cap for a metric.
const Unlimited = -1

// ErrInvalidMetric indicates a metric outside the closed enumeration.
var ErrInvalidMetric = errors.New("invalid metric")

// All returns every known metric in a stable order.
func All() []Metric {
	return []Metric{Memories, AICalls, Photos, Witnesses, AudioExports}
}

// Parse validates a raw metric string and returns the typed value.
func Parse(raw string) (Metric, error) {
	m := Metric(strings.TrimSpace(raw))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, raw)
	}
	return m, nil
}

// Valid reports whether the metric belongs to the closed enumeration.
func (m Metric) Valid() bool {
	switch m {
	case Memories, AICalls, Photos, Witnesses, AudioExports:
		return true
	default:
		return false
	}
}

// String returns the wire name of the metric.
func (m Metric) String() string { return string(m) }
