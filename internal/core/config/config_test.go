package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"), "/tmp/data")
	require.NoError(t, err)

	assert.Equal(t, "https://api.stride.app", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Sync.CacheTTL)
	assert.Equal(t, 100, cfg.Sync.CacheCapacity)
	assert.Equal(t, 300*time.Millisecond, cfg.Sync.DebounceWindow)
	assert.Equal(t, 3, cfg.Sync.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Sync.RetryDelay)
	assert.Equal(t, "/tmp/data", cfg.DataDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
api:
  base_url: https://staging.stride.app
  token: abc123
sync:
  cache_ttl: 10s
  debounce_window: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, "/tmp/data")
	require.NoError(t, err)

	assert.Equal(t, "https://staging.stride.app", cfg.API.BaseURL)
	assert.Equal(t, "abc123", cfg.API.Token)
	assert.Equal(t, 10*time.Second, cfg.Sync.CacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.DebounceWindow)

	// Untouched values keep their defaults.
	assert.Equal(t, 100, cfg.Sync.CacheCapacity)
	assert.Equal(t, 3, cfg.Sync.RetryAttempts)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("api: [broken"), 0o644))

	_, err := Load(path, "/tmp/data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero cache ttl",
			mutate:  func(c *Config) { c.Sync.CacheTTL = 0 },
			wantErr: "cache_ttl",
		},
		{
			name:    "zero cache capacity",
			mutate:  func(c *Config) { c.Sync.CacheCapacity = 0 },
			wantErr: "cache_capacity",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Sync.DebounceWindow = -time.Second },
			wantErr: "debounce_window",
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.Sync.RetryAttempts = -1 },
			wantErr: "retry_attempts",
		},
		{
			name:   "zero debounce is allowed",
			mutate: func(c *Config) { c.Sync.DebounceWindow = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
