package config

import "time"

// ResponseCacheConfig configures the Redis snapshot cache for the
// analytics summary. Summaries change only when a recompute lands, so a
// short TTL keeps them close to fresh.
type ResponseCacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int // larger responses are not cached
}

// LoadResponseCacheConfig reads RESPONSE_CACHE_* variables.
func LoadResponseCacheConfig() ResponseCacheConfig {
	cfg := ResponseCacheConfig{
		Enabled:      envBool("RESPONSE_CACHE_ENABLED", true),
		TTL:          envDur("RESPONSE_CACHE_TTL", 15*time.Second),
		Prefix:       envStr("RESPONSE_CACHE_PREFIX", "cache:analytics"),
		MaxBodyBytes: envInt("RESPONSE_CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Second
	}
	return cfg
}
