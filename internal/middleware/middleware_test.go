package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return s, rdb
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestResponseCache_HitAfterMiss(t *testing.T) {
	s, rdb := newRedis(t)
	cfg := config.ResponseCacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache:analytics", MaxBodyBytes: 1 << 10}

	calls := 0
	e := echo.New()
	e.GET("/v1/analytics/:event_id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"event_id": c.Param("event_id"), "slots": []int{1, 2}})
	}, NewResponseCache(cfg, rdb, zap.NewNop()))

	first := serve(e, http.MethodGet, "/v1/analytics/abc")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.True(t, s.Exists("cache:analytics:/v1/analytics/abc"))

	second := serve(e, http.MethodGet, "/v1/analytics/abc")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Equal(t, 1, calls)

	s.FastForward(2 * time.Minute)
	serve(e, http.MethodGet, "/v1/analytics/abc")
	assert.Equal(t, 2, calls)
}

func TestResponseCache_SkipsErrorsAndLargeBodies(t *testing.T) {
	s, rdb := newRedis(t)
	cfg := config.ResponseCacheConfig{Enabled: true, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 16}

	e := echo.New()
	mw := NewResponseCache(cfg, rdb, zap.NewNop())
	e.GET("/missing", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event_not_found"})
	}, mw)
	e.GET("/large", func(c echo.Context) error {
		return c.String(http.StatusOK, "this body is longer than sixteen bytes")
	}, mw)

	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/missing").Code)
	rec := serve(e, http.MethodGet, "/large")
	assert.Equal(t, "this body is longer than sixteen bytes", rec.Body.String())
	assert.Empty(t, s.Keys())
}

func TestResponseCache_DisabledWithoutRedis(t *testing.T) {
	calls := 0
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, NewResponseCache(config.ResponseCacheConfig{Enabled: true}, nil, zap.NewNop()))

	serve(e, http.MethodGet, "/x")
	rec := serve(e, http.MethodGet, "/x")
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestTokenBucket_LimitsAndRefills(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	now := time.Date(2025, time.July, 8, 12, 0, 0, 0, time.UTC)
	b := NewTokenBucket(cfg, rdb)
	b.now = func() time.Time { return now }

	e := echo.New()
	e.GET("/v1/showtimes/search", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, b.Middleware(zap.NewNop()))

	first := serve(e, http.MethodGet, "/v1/showtimes/search")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/showtimes/search").Code)

	blocked := serve(e, http.MethodGet, "/v1/showtimes/search")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "too_many_requests")

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/showtimes/search").Code)
}

func TestTokenBucket_RedisDownAllows(t *testing.T) {
	s, rdb := newRedis(t)
	b := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}, rdb)

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, b.Middleware(zap.NewNop()))
	s.Close()

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x").Code)
}

func TestMetrics_PassesErrorThrough(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/boom", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	assert.Equal(t, http.StatusTeapot, serve(e, http.MethodGet, "/boom").Code)
}
