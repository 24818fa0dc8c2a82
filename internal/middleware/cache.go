package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/config"
)

// captureWriter copies the response body while forwarding it, up to limit
// bytes. overflow records that the body did not fit.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// snapshot is what gets stored in Redis for one cached response.
type snapshot struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// ResponseCacheKey is the Redis key under which a request's response is cached.
func ResponseCacheKey(prefix string, r *http.Request) string {
	return prefix + ":" + r.URL.RequestURI()
}

// NewResponseCache caches successful GET responses in Redis for cfg.TTL.
// A nil client or a disabled config yields a pass-through middleware.
// Redis errors never fail the request.
func NewResponseCache(cfg config.ResponseCacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			key := ResponseCacheKey(cfg.Prefix, req)

			raw, err := rdb.Get(req.Context(), key).Bytes()
			switch {
			case err == nil:
				var s snapshot
				if jerr := json.Unmarshal(raw, &s); jerr == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(s.Status, s.ContentType, s.Body)
				}
				log.Warn("response cache: dropping unreadable entry", zap.String("key", key))
				_ = rdb.Del(req.Context(), key).Err()
			case !errors.Is(err, redis.Nil):
				log.Warn("response cache: read failed", zap.String("key", key), zap.Error(err))
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}

			payload, err := json.Marshal(snapshot{
				Status:      cw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        cw.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			// The request context may already be cancelled by the time we store.
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rdb.Set(ctx, key, payload, cfg.TTL).Err(); err != nil {
				log.Warn("response cache: write failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
