package cache

import (
	"time"

	"github.com/raaihank/pii-sentinel/internal/privacy"
)

// CachedOutcome is the engine verdict for one payload, stored so that
// repeated identical payloads skip re-classification. Entries are TTL-bound;
// the cache is ephemeral and never the system of record.
type CachedOutcome struct {
	Redacted privacy.Record    `json:"redacted"`
	IsPII    bool              `json:"is_pii"`
	Findings []privacy.Finding `json:"findings,omitempty"`
	CachedAt time.Time         `json:"cached_at"`
}

// Stats represents cache performance statistics
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	TotalKeys   int64   `json:"total_keys"`
	MemoryUsage int64   `json:"memory_usage_bytes"`
}

// Config contains cache configuration
type Config struct {
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}
