package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/memoirbase/memoirbase/internal/config"
)

func TestKeyForDecision(t *testing.T) {
	cases := []struct {
		name     string
		userID   uint64
		decision Decision
		want     string
	}{
		{"user scope", 42, Decision{Limit: 5, Scope: ScopeUser}, "u:42"},
		{"user metric scope", 42, Decision{Limit: 5, Scope: ScopeUserMetric, Metric: "ai_calls"}, "u:42:m:ai_calls"},
		{"metric scope without metric", 42, Decision{Limit: 5, Scope: ScopeUserMetric}, ""},
		{"zero user", 0, Decision{Limit: 5, Scope: ScopeUser}, ""},
		{"zero limit", 42, Decision{Limit: 0, Scope: ScopeUser}, ""},
		{"no scope", 42, Decision{Limit: 5, Scope: ScopeNone}, ""},
	}
	for _, tc := range cases {
		if got := KeyForDecision(tc.userID, tc.decision); got != tc.want {
			t.Fatalf("%s: key = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		result, errAllow := limiter.Allow(context.Background(), "u:1", 3, now)
		if errAllow != nil {
			t.Fatalf("allow %d: %v", i, errAllow)
		}
		if !result.Allowed {
			t.Fatalf("request %d denied below the limit", i)
		}
		if result.Remaining != 3-(i+1) {
			t.Fatalf("remaining = %d, want %d", result.Remaining, 3-(i+1))
		}
	}

	result, errAllow := limiter.Allow(context.Background(), "u:1", 3, now)
	if errAllow != nil {
		t.Fatalf("allow over limit: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("request over the limit was allowed")
	}

	// A new one-second window resets the counter.
	next := now.Add(time.Second)
	result, errAllow = limiter.Allow(context.Background(), "u:1", 3, next)
	if errAllow != nil {
		t.Fatalf("allow next window: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatalf("request in the next window was denied")
	}
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if result, _ := limiter.Allow(context.Background(), "u:1", 1, now); !result.Allowed {
		t.Fatalf("first key denied")
	}
	if result, _ := limiter.Allow(context.Background(), "u:1", 1, now); result.Allowed {
		t.Fatalf("first key allowed over limit")
	}
	if result, _ := limiter.Allow(context.Background(), "u:2", 1, now); !result.Allowed {
		t.Fatalf("second key affected by first key's counter")
	}
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Now()
	for i := 0; i < 10; i++ {
		result, errAllow := limiter.Allow(context.Background(), "u:1", 0, now)
		if errAllow != nil || !result.Allowed {
			t.Fatalf("zero limit should always allow, got %+v err %v", result, errAllow)
		}
	}
}

func TestManager_UsesMemoryWhenRedisDisabled(t *testing.T) {
	provider := StaticSettingsProvider(config.RateLimitConfig{Limit: 2})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	manager := NewManager(provider, func() time.Time { return now }, nil)

	if manager.DefaultLimit() != 2 {
		t.Fatalf("default limit = %d, want 2", manager.DefaultLimit())
	}

	for i := 0; i < 2; i++ {
		result, errAllow := manager.Allow(context.Background(), "u:9", 2)
		if errAllow != nil || !result.Allowed {
			t.Fatalf("allow %d: result %+v err %v", i, result, errAllow)
		}
	}
	result, errAllow := manager.Allow(context.Background(), "u:9", 2)
	if errAllow != nil {
		t.Fatalf("allow over limit: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("request over the limit was allowed")
	}
}

func TestManager_EmptyKeyAllows(t *testing.T) {
	manager := NewManager(StaticSettingsProvider(config.RateLimitConfig{Limit: 1}), nil, nil)
	result, errAllow := manager.Allow(context.Background(), "", 1)
	if errAllow != nil || !result.Allowed {
		t.Fatalf("empty key should bypass limiting, got %+v err %v", result, errAllow)
	}
}
