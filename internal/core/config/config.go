// Package config handles configuration loading and validation for stride.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	API     APIConfig  `yaml:"api"`
	Sync    SyncConfig `yaml:"sync"`
	DataDir string     `yaml:"-"` // set by caller, not from config file
}

// APIConfig holds the remote progress API settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// SyncConfig holds the tuning knobs of the synchronization core.
type SyncConfig struct {
	// CacheTTL is the snapshot-cache freshness window. Deliberately short:
	// freshness matters more than hit rate.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// CacheCapacity bounds the snapshot-cache entry table.
	CacheCapacity int `yaml:"cache_capacity"`
	// DebounceWindow is the idle time after the last checklist toggle
	// before the coalesced write is sent.
	DebounceWindow time.Duration `yaml:"debounce_window"`
	// RetryAttempts bounds retries when an expected snapshot is missing.
	RetryAttempts int `yaml:"retry_attempts"`
	// RetryDelay is the fixed wait between retry attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// FocusSettle delays focus-triggered refreshes past navigation
	// transitions.
	FocusSettle time.Duration `yaml:"focus_settle"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://api.stride.app",
		},
		Sync: SyncConfig{
			CacheTTL:       5 * time.Second,
			CacheCapacity:  100,
			DebounceWindow: 300 * time.Millisecond,
			RetryAttempts:  3,
			RetryDelay:     time.Second,
			FocusSettle:    300 * time.Millisecond,
		},
	}
}

// Load reads the config file at configPath, falling back to defaults when
// the file does not exist. Values present in the file override defaults.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// No file is fine; defaults apply.
	default:
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	cfg.DataDir = dataDir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that tuning values are usable.
func (c *Config) Validate() error {
	if c.Sync.CacheTTL <= 0 {
		return fmt.Errorf("sync.cache_ttl must be positive, got %s", c.Sync.CacheTTL)
	}
	if c.Sync.CacheCapacity <= 0 {
		return fmt.Errorf("sync.cache_capacity must be positive, got %d", c.Sync.CacheCapacity)
	}
	if c.Sync.DebounceWindow < 0 {
		return fmt.Errorf("sync.debounce_window must not be negative, got %s", c.Sync.DebounceWindow)
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("sync.retry_attempts must not be negative, got %d", c.Sync.RetryAttempts)
	}
	return nil
}
