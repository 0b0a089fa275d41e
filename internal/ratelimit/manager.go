package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisBreakerDuration is how long the manager falls back to memory after a
// Redis failure.
const redisBreakerDuration = 30 * time.Second

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() SettingsConfig

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

type redisConfig struct {
	addr     string
	password string
	prefix   string
	db       int
}

// Manager selects a limiter backend and enforces rate limits.
type Manager struct {
	provider       SettingsProvider
	nowFn          func() time.Time
	memoryLimiter  Limiter
	newRedisClient RedisClientFactory
	mu             sync.Mutex
	redisLimiter   *RedisLimiter
	redisCfg       redisConfig
	breakerUntil   time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(provider SettingsProvider, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = func() SettingsConfig { return SettingsConfig{} }
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		provider:       provider,
		nowFn:          nowFn,
		memoryLimiter:  NewMemoryLimiter(),
		newRedisClient: newRedisClient,
	}
}

// DefaultLimit returns the configured per-user limit.
func (m *Manager) DefaultLimit() int {
	if m == nil {
		return 0
	}
	cfg := m.provider()
	if cfg.Limit < 0 {
		return 0
	}
	return cfg.Limit
}

// Allow checks whether the request should be allowed using the best
// available backend. Redis failures trip a breaker and fall back to the
// in-memory limiter.
func (m *Manager) Allow(ctx context.Context, key string, limit int) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	if m == nil {
		return Result{Allowed: true}, nil
	}
	now := m.nowFn()
	cfg := m.provider()

	if cfg.RedisEnabled {
		if result, ok := m.allowRedis(ctx, key, limit, now, cfg); ok {
			return result, nil
		}
	}
	return m.memoryLimiter.Allow(ctx, key, limit, now)
}

// allowRedis attempts the Redis backend, reporting false when memory should
// be used instead.
func (m *Manager) allowRedis(ctx context.Context, key string, limit int, now time.Time, cfg SettingsConfig) (Result, bool) {
	if m == nil {
		return Result{}, false
	}
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return Result{}, false
	}

	m.mu.Lock()
	if now.Before(m.breakerUntil) {
		m.mu.Unlock()
		return Result{}, false
	}
	wanted := redisConfig{
		addr:     addr,
		password: cfg.RedisPassword,
		prefix:   cfg.RedisPrefix,
		db:       cfg.RedisDB,
	}
	if m.redisLimiter == nil || m.redisCfg != wanted {
		client := m.newRedisClient(&redis.Options{
			Addr:     wanted.addr,
			Password: wanted.password,
			DB:       wanted.db,
		})
		m.redisLimiter = NewRedisLimiter(client, wanted.prefix)
		m.redisCfg = wanted
	}
	limiter := m.redisLimiter
	m.mu.Unlock()

	result, errAllow := limiter.Allow(ctx, key, limit, now)
	if errAllow != nil {
		if !errors.Is(errAllow, context.Canceled) {
			log.WithError(errAllow).Warn("rate limit: redis unavailable, falling back to memory")
		}
		m.mu.Lock()
		m.breakerUntil = now.Add(redisBreakerDuration)
		m.mu.Unlock()
		return Result{}, false
	}
	return result, true
}
