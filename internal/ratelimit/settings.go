package ratelimit

import (
	"github.com/memoirbase/memoirbase/internal/config"
)

// SettingsConfig captures the rate limit settings snapshot the manager
// consults on every check.
type SettingsConfig struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// FileSettingsProvider returns a provider that re-reads the config file on
// each snapshot, so edits apply without a restart.
func FileSettingsProvider(configPath string) SettingsProvider {
	return func() SettingsConfig {
		return fromConfig(config.LoadRateLimitConfig(configPath))
	}
}

// StaticSettingsProvider returns a provider with a fixed snapshot.
func StaticSettingsProvider(cfg config.RateLimitConfig) SettingsProvider {
	snapshot := fromConfig(cfg)
	return func() SettingsConfig { return snapshot }
}

// fromConfig maps file config onto the manager's snapshot type.
func fromConfig(cfg config.RateLimitConfig) SettingsConfig {
	return SettingsConfig{
		Limit:         cfg.Limit,
		RedisEnabled:  cfg.RedisEnabled,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	}
}
