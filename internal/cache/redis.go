package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// OutcomeCache is a Redis-backed TTL cache of engine verdicts, keyed by the
// SHA-256 of the raw JSON payload.
type OutcomeCache struct {
	client *redis.Client
	config *Config
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewOutcomeCache creates a Redis-backed outcome cache and verifies the
// connection before returning.
func NewOutcomeCache(config *Config, logger *zap.Logger) (*OutcomeCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	c := &OutcomeCache{
		client: client,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Outcome cache initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.Duration("default_ttl", config.DefaultTTL))

	return c, nil
}

// Get looks up a previously cached verdict for the given raw payload.
// Lookup failures are treated as misses; the caller always has the engine to
// fall back on.
func (c *OutcomeCache) Get(ctx context.Context, payload []byte) (*CachedOutcome, bool) {
	key := c.keyFor(payload)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.misses.Add(1)
		return nil, false
	} else if err != nil {
		c.logger.Error("Cache lookup failed", zap.Error(err))
		c.misses.Add(1)
		return nil, false
	}

	var outcome CachedOutcome
	if err := json.Unmarshal([]byte(data), &outcome); err != nil {
		c.logger.Error("Failed to unmarshal cached outcome", zap.Error(err))
		c.client.Del(ctx, key)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	c.logger.Debug("Cache hit", zap.String("key", key))
	return &outcome, true
}

// Store caches the verdict for a payload with the configured TTL.
func (c *OutcomeCache) Store(ctx context.Context, payload []byte, outcome *CachedOutcome) error {
	key := c.keyFor(payload)
	outcome.CachedAt = time.Now()

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome for caching: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Error("Failed to cache outcome", zap.Error(err))
		return fmt.Errorf("failed to cache outcome: %w", err)
	}

	c.logger.Debug("Outcome cached", zap.String("key", key))
	return nil
}

// GetStats returns cache performance statistics
func (c *OutcomeCache) GetStats(ctx context.Context) (*Stats, error) {
	info, err := c.client.Info(ctx, "memory").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %w", err)
	}

	stats := &Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	for _, line := range strings.Split(info, "\r\n") {
		if memStr, ok := strings.CutPrefix(line, "used_memory:"); ok {
			if mem, err := strconv.ParseInt(memStr, 10, 64); err == nil {
				stats.MemoryUsage = mem
			}
		}
	}

	if keys, err := c.client.DBSize(ctx).Result(); err == nil {
		stats.TotalKeys = keys
	}

	return stats, nil
}

// Clear removes all cached outcomes under our key prefix.
func (c *OutcomeCache) Clear(ctx context.Context) error {
	pattern := c.config.KeyPrefix + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		if err := c.client.Del(ctx, keys[i:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	c.logger.Info("Cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection.
func (c *OutcomeCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// keyFor hashes the raw payload into a stable cache key.
func (c *OutcomeCache) keyFor(payload []byte) string {
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:rec:%s", c.config.KeyPrefix, hex.EncodeToString(sum[:16]))
}

// maskRedisURL masks the password portion of a Redis URL for logging.
func maskRedisURL(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	colon := strings.LastIndex(url[:at], ":")
	if colon < 0 || !strings.Contains(url[:at], "//") {
		return url
	}
	return url[:colon+1] + "***" + url[at:]
}
