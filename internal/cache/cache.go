// Package cache provides Redis-backed storage for stop-loss cooldowns and
// ranked trading-pair snapshots, with graceful degradation to in-memory
// state when Redis is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bingx-scalping-bot/internal/store"
)

// Key formats. Cooldowns are per account and symbol; the pair snapshot is
// shared across accounts trading the same quote asset.
const (
	keyCooldown    = "scalper:cooldown:%s:%s"
	keyRankedPairs = "scalper:pairs:ranked"
)

// DefaultPairsTTL bounds how long a ranked-pair snapshot is served before
// the orchestrator must rebuild it from the exchange.
const DefaultPairsTTL = 30 * time.Minute

// Config holds Redis connection settings.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// Cache wraps a Redis client behind a small circuit breaker. When the
// breaker is open every operation is served from the in-memory fallback, so
// callers never see a hard failure from a Redis outage.
type Cache struct {
	client *redis.Client
	log    zerolog.Logger

	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration

	fallback *store.MemoryCooldownStore

	pairsMu    sync.RWMutex
	pairsLocal []string
	pairsUntil time.Time
}

// New connects to Redis and returns a Cache. A failed initial connection is
// not fatal; the cache starts degraded and recovers on the next health
// check.
func New(cfg Config, log zerolog.Logger) (*Cache, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	c := &Cache{
		client:        client,
		log:           log.With().Str("component", "cache").Logger(),
		maxFailures:   3,
		checkInterval: 30 * time.Second,
		fallback:      store.NewMemoryCooldownStore(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.log.Warn().Err(err).Str("address", cfg.Address).Msg("redis unavailable, starting degraded")
		return c, nil
	}

	c.healthy = true
	c.lastCheck = time.Now()
	c.log.Info().Str("address", cfg.Address).Msg("redis connected")
	return c, nil
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsHealthy reports whether Redis is currently serving operations.
func (c *Cache) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

func (c *Cache) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	if c.failureCount >= c.maxFailures && c.healthy {
		c.healthy = false
		c.log.Warn().Err(err).Int("failures", c.failureCount).Msg("redis marked unhealthy, using in-memory fallback")
	}
}

func (c *Cache) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.healthy {
		c.log.Info().Msg("redis recovered")
	}
	c.healthy = true
	c.failureCount = 0
	c.lastCheck = time.Now()
}

// tryRecover pings Redis when the breaker is open and enough time passed
// since the last check.
func (c *Cache) tryRecover(ctx context.Context) bool {
	c.mu.RLock()
	healthy := c.healthy
	due := time.Since(c.lastCheck) >= c.checkInterval
	c.mu.RUnlock()
	if healthy {
		return true
	}
	if !due {
		return false
	}

	c.mu.Lock()
	c.lastCheck = time.Now()
	c.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Ping(pingCtx).Err(); err != nil {
		return false
	}
	c.recordSuccess()
	return true
}

// ==================== COOLDOWNS ====================

// SetCooldown records a per-symbol cooldown deadline. The fallback copy is
// always written so a Redis outage mid-cooldown does not re-enable the
// symbol early.
func (c *Cache) SetCooldown(ctx context.Context, accountID, symbol string, until time.Time) error {
	_ = c.fallback.SetCooldown(ctx, accountID, symbol, until)
	if !c.tryRecover(ctx) {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf(keyCooldown, accountID, symbol)
	if err := c.client.Set(ctx, key, until.UTC().Format(time.RFC3339Nano), ttl).Err(); err != nil {
		c.recordFailure(err)
		return nil
	}
	c.recordSuccess()
	return nil
}

// CooldownUntil returns the active cooldown deadline, if any.
func (c *Cache) CooldownUntil(ctx context.Context, accountID, symbol string) (time.Time, bool, error) {
	if c.tryRecover(ctx) {
		key := fmt.Sprintf(keyCooldown, accountID, symbol)
		raw, err := c.client.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			c.recordSuccess()
			return time.Time{}, false, nil
		case err != nil:
			c.recordFailure(err)
		default:
			c.recordSuccess()
			until, parseErr := time.Parse(time.RFC3339Nano, raw)
			if parseErr == nil && time.Now().Before(until) {
				return until, true, nil
			}
			return time.Time{}, false, nil
		}
	}
	return c.fallback.CooldownUntil(ctx, accountID, symbol)
}

// ClearCooldown removes any active cooldown.
func (c *Cache) ClearCooldown(ctx context.Context, accountID, symbol string) error {
	_ = c.fallback.ClearCooldown(ctx, accountID, symbol)
	if !c.tryRecover(ctx) {
		return nil
	}
	key := fmt.Sprintf(keyCooldown, accountID, symbol)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.recordFailure(err)
		return nil
	}
	c.recordSuccess()
	return nil
}

// ==================== RANKED PAIRS ====================

// SetRankedPairs stores the volume-ranked pair snapshot used by the scan
// loop's periodic refresh.
func (c *Cache) SetRankedPairs(ctx context.Context, pairs []string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultPairsTTL
	}
	c.pairsMu.Lock()
	c.pairsLocal = append([]string(nil), pairs...)
	c.pairsUntil = time.Now().Add(ttl)
	c.pairsMu.Unlock()

	if !c.tryRecover(ctx) {
		return nil
	}
	payload, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("marshal ranked pairs: %w", err)
	}
	if err := c.client.Set(ctx, keyRankedPairs, payload, ttl).Err(); err != nil {
		c.recordFailure(err)
		return nil
	}
	c.recordSuccess()
	return nil
}

// RankedPairs returns the cached snapshot, or ok=false when absent or
// expired.
func (c *Cache) RankedPairs(ctx context.Context) ([]string, bool, error) {
	if c.tryRecover(ctx) {
		raw, err := c.client.Get(ctx, keyRankedPairs).Bytes()
		switch {
		case err == redis.Nil:
			c.recordSuccess()
			return nil, false, nil
		case err != nil:
			c.recordFailure(err)
		default:
			c.recordSuccess()
			var pairs []string
			if jsonErr := json.Unmarshal(raw, &pairs); jsonErr == nil && len(pairs) > 0 {
				return pairs, true, nil
			}
			return nil, false, nil
		}
	}

	c.pairsMu.RLock()
	defer c.pairsMu.RUnlock()
	if len(c.pairsLocal) == 0 || time.Now().After(c.pairsUntil) {
		return nil, false, nil
	}
	return append([]string(nil), c.pairsLocal...), true, nil
}
