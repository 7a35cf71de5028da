package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8, cfg.RateLimit.Limit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 800*time.Millisecond, cfg.Latency.Track)
	assert.Equal(t, 500*time.Millisecond, cfg.Latency.Create)
	assert.Equal(t, 300*time.Millisecond, cfg.Latency.Get)
	assert.Equal(t, 20*time.Second, cfg.Status.Bucket)
	assert.Equal(t, 20*time.Second, cfg.Tracking.BaseInterval)
	assert.Equal(t, 300*time.Second, cfg.Tracking.MaxInterval)
	assert.Equal(t, 10*time.Second, cfg.Tracking.RequestTimeout)
	assert.False(t, cfg.Tracking.AllowCycle)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MOCKAPI_ADDR", ":9090")
	t.Setenv("MOCKAPI_RATE_LIMIT_LIMIT", "3")
	t.Setenv("MOCKAPI_RATE_LIMIT_WINDOW", "2s")
	t.Setenv("MOCKAPI_LATENCY_TRACK", "0s")
	t.Setenv("MOCKAPI_TRACKING_ALLOW_CYCLE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 3, cfg.RateLimit.Limit)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, time.Duration(0), cfg.Latency.Track)
	assert.True(t, cfg.Tracking.AllowCycle)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mock.yaml")
	data := []byte("addr: \":7070\"\nrate_limit:\n  backend: redis\nredis:\n  addr: redis:6379\nstatus:\n  bucket: 5s\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Second, cfg.Status.Bucket)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero limit", mutate: func(c *Config) { c.RateLimit.Limit = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.RateLimit.Backend = "memcached" }},
		{name: "max below base", mutate: func(c *Config) { c.Tracking.MaxInterval = time.Second }},
		{name: "negative latency", mutate: func(c *Config) { c.Latency.Get = -time.Second }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "redis without addr", mutate: func(c *Config) {
			c.RateLimit.Backend = "redis"
			c.Redis.Addr = ""
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
