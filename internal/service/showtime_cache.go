package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/metrics"
	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/repository"
)

// SearchCacheTTL is how long a provider response stays fresh.
const SearchCacheTTL = 24 * time.Hour

// ShowtimeCache fronts the showtime provider with a persistent, per
// (location, movie) cache. Keys are exact and case-sensitive.
type ShowtimeCache struct {
	store    SearchCacheStore
	provider ShowtimeProvider
	log      *zap.Logger
	now      func() time.Time
}

// NewShowtimeCache wires a cache to its store and provider.
func NewShowtimeCache(store SearchCacheStore, provider ShowtimeProvider, log *zap.Logger) *ShowtimeCache {
	return &ShowtimeCache{store: store, provider: provider, log: log, now: time.Now}
}

// searchPayload is the part of the provider document the cache validates.
type searchPayload struct {
	Showtimes json.RawMessage `json:"showtimes"`
}

// Get returns the showtime listing for the key. A fresh cached row is
// used when its showtimes field is present and non-null; a row with any
// other shape is deleted and refetched. Provider failures are returned
// wrapped in ErrProvider. Storing the fresh response is best-effort.
func (c *ShowtimeCache) Get(ctx context.Context, location, movie string) ([]model.ShowtimeDay, error) {
	if location == "" || movie == "" {
		return nil, validationf("location and movie are required")
	}
	log := c.log.With(zap.String("location", location), zap.String("movie", movie))

	cached, err := c.store.GetFresh(ctx, location, movie, c.now())
	switch {
	case err == nil:
		if days, ok := decodeShowtimes(cached.Payload); ok {
			metrics.SearchCacheLookups.WithLabelValues("hit").Inc()
			log.Debug("using cached showtime search")
			return days, nil
		}
		metrics.SearchCacheLookups.WithLabelValues("invalid").Inc()
		log.Warn("cached showtime search is invalid, fetching fresh data")
		if err := c.store.Delete(ctx, location, movie); err != nil {
			log.Error("delete invalid cache entry failed", zap.Error(err))
		}
	case errors.Is(err, repository.ErrCacheMiss):
		metrics.SearchCacheLookups.WithLabelValues("miss").Inc()
	default:
		// A broken cache read should not block the lookup.
		metrics.SearchCacheLookups.WithLabelValues("miss").Inc()
		log.Error("cache read failed", zap.Error(err))
	}

	started := time.Now()
	payload, err := c.provider.Search(ctx, location, movie)
	if err != nil {
		metrics.ProviderRequestDuration.WithLabelValues("error").Observe(time.Since(started).Seconds())
		if errors.Is(err, ErrProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	metrics.ProviderRequestDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())

	now := c.now().UTC()
	entry := model.CachedSearchResult{
		Location:  location,
		Movie:     movie,
		Payload:   payload,
		ExpiresAt: now.Add(SearchCacheTTL),
		CreatedAt: now,
	}
	if err := c.store.Upsert(ctx, entry); err != nil {
		log.Error("caching showtime search failed", zap.Error(err))
	}

	days, ok := decodeShowtimes(payload)
	if !ok {
		log.Warn("provider response has no showtimes")
	}
	return days, nil
}

// decodeShowtimes extracts the listing. ok is false when the showtimes
// field is missing, null or not a listing.
func decodeShowtimes(raw []byte) ([]model.ShowtimeDay, bool) {
	var p searchPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	if len(p.Showtimes) == 0 || bytes.Equal(bytes.TrimSpace(p.Showtimes), []byte("null")) {
		return nil, false
	}
	var days []model.ShowtimeDay
	if err := json.Unmarshal(p.Showtimes, &days); err != nil {
		return nil, false
	}
	if days == nil {
		days = []model.ShowtimeDay{}
	}
	return days, true
}
