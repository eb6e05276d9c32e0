package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if !cfg.Privacy.Enabled {
		t.Error("privacy should be enabled by default")
	}
	if !cfg.Privacy.StrictFieldNames {
		t.Error("strict field names should be the default")
	}
	if len(cfg.Privacy.Detectors) != 1 || cfg.Privacy.Detectors[0] != "all" {
		t.Errorf("detectors = %v, want [all]", cfg.Privacy.Detectors)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
	if cfg.Pipeline.OutputSuffix != "_redacted" {
		t.Errorf("output suffix = %q, want _redacted", cfg.Pipeline.OutputSuffix)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}

	if err := validateConfig(cfg); err != nil {
		t.Errorf("defaults must validate cleanly: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "console format ok", mutate: func(c *Config) { c.Logging.Format = "console" }, wantErr: false},
		{name: "empty detectors", mutate: func(c *Config) { c.Privacy.Detectors = nil }, wantErr: true},
		{name: "zero progress report", mutate: func(c *Config) { c.Pipeline.ProgressReport = 0 }, wantErr: true},
		{name: "rate limit enabled without rate", mutate: func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerMin = 0
		}, wantErr: true},
		{name: "cache enabled without url", mutate: func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.RedisURL = ""
		}, wantErr: true},
		{name: "cache enabled with url", mutate: func(c *Config) {
			c.Cache.Enabled = true
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
privacy:
  enabled: true
  strict_field_names: false
  detectors:
    - phone
    - aadhaar
server:
  port: 9191
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Privacy.StrictFieldNames {
		t.Error("strict_field_names should be false from the file")
	}
	if len(cfg.Privacy.Detectors) != 2 {
		t.Errorf("detectors = %v, want two entries", cfg.Privacy.Detectors)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.Server.Port)
	}
	// Keys the file omits keep their defaults.
	if cfg.Pipeline.OutputSuffix != "_redacted" {
		t.Errorf("output suffix = %q, want default", cfg.Pipeline.OutputSuffix)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: -5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative port")
	}
}
