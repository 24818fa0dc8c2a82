package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080",
		"DB_USER": "root", "DB_HOST": "localhost", "DB_PORT": "3306", "DB_NAME": "showtimes",
		"SERPAPI_KEY": "k",
	} {
		t.Setenv(k, v)
	}

	cfg := Load()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, RecomputeModeQueue, cfg.RecomputeMode)
	assert.Equal(t, 30*time.Second, cfg.RecomputeTimeout)
	assert.Equal(t, 8, cfg.RankConcurrency)
	assert.Equal(t, "@hourly", cfg.CacheCleanupSchedule)
	assert.Equal(t, "https://serpapi.com", cfg.SerpAPIURL)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 4*time.Second, cfg.TTL, "raised to cover a full refill")
}

func TestLoadRedisConfig_HostPort(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "yes")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, "d", envStr("X_UNSET", "d"))
}
