package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Privacy  PrivacyConfig  `yaml:"privacy" mapstructure:"privacy"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Events   EventsConfig   `yaml:"events" mapstructure:"events"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// PrivacyConfig contains PII detection and masking configuration
type PrivacyConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// StrictFieldNames gates standalone detection on the expected JSON key.
	// When false, standalone patterns are tried against every string field.
	StrictFieldNames bool     `yaml:"strict_field_names" mapstructure:"strict_field_names"`
	Detectors        []string `yaml:"detectors" mapstructure:"detectors"`
}

// PipelineConfig contains file processing configuration
type PipelineConfig struct {
	ProgressReport int    `yaml:"progress_report" mapstructure:"progress_report"`
	OutputSuffix   string `yaml:"output_suffix" mapstructure:"output_suffix"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RateLimit    struct {
		Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
		RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
		Burst          int  `yaml:"burst" mapstructure:"burst"`
	} `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CacheConfig contains the optional Redis outcome cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// WatchConfig contains directory watch mode configuration
type WatchConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Pattern   string `yaml:"pattern" mapstructure:"pattern"`
}

// EventsConfig contains WebSocket event hub configuration
type EventsConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Path               string `yaml:"path" mapstructure:"path"`
	Username           string `yaml:"username" mapstructure:"username"`
	Password           string `yaml:"password" mapstructure:"password"`
	BroadcastRedaction bool   `yaml:"broadcast_redaction" mapstructure:"broadcast_redaction"`
	BroadcastSystem    bool   `yaml:"broadcast_system" mapstructure:"broadcast_system"`
	BroadcastConns     bool   `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Privacy: PrivacyConfig{
			Enabled:          true,
			StrictFieldNames: true,
			Detectors:        []string{"all"},
		},
		Pipeline: PipelineConfig{
			ProgressReport: 1000,
			OutputSuffix:   "_redacted",
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			MaxConnections: 10,
			MinIdleConns:   2,
			DefaultTTL:     time.Hour,
			KeyPrefix:      "pii-sentinel",
		},
		Watch: WatchConfig{
			Pattern: "*.csv",
		},
		Events: EventsConfig{
			Enabled:            true,
			Path:               "/ws",
			BroadcastRedaction: true,
			BroadcastSystem:    true,
			BroadcastConns:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerMin = 600
	cfg.Server.RateLimit.Burst = 50
	return cfg
}
