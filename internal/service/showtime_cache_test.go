package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

const seattlePayload = `{
  "search_metadata": {"status": "Success"},
  "showtimes": [
    {"day": "TodayJul 8", "theaters": [
      {"name": "AMC Pacific Place 11", "address": "600 Pine St, Seattle", "distance": "0.4 mi",
       "showing": [{"type": "Standard", "time": ["5:00pm", "8:15pm"]}, {"type": "IMAX", "time": ["7:30pm"]}]}
    ]}
  ]
}`

func newTestCache(store *fakeCacheStore, provider *fakeProvider, now time.Time) *ShowtimeCache {
	c := NewShowtimeCache(store, provider, zap.NewNop())
	c.now = fixedClock(now)
	return c
}

func TestShowtimeCache_SecondCallIsServedFromCache(t *testing.T) {
	store := newFakeCacheStore()
	provider := &fakeProvider{payload: []byte(seattlePayload)}
	c := newTestCache(store, provider, utc(12, 0))

	first, err := c.Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	require.Len(t, first, 1)
	assert.Equal(t, "TodayJul 8", first[0].Day)
	assert.Equal(t, []string{"5:00pm", "8:15pm"}, first[0].Theaters[0].Showing[0].Time)

	second, err := c.Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, first, second)

	entry := store.rows[cacheKey{"Seattle,WA", "F1"}]
	assert.Equal(t, utc(12, 0).Add(24*time.Hour), entry.ExpiresAt)
}

func TestShowtimeCache_TTL(t *testing.T) {
	cachedAt := utc(12, 0)
	store := newFakeCacheStore()
	provider := &fakeProvider{payload: []byte(seattlePayload)}

	_, err := newTestCache(store, provider, cachedAt).Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)

	_, err = newTestCache(store, provider, cachedAt.Add(23*time.Hour+59*time.Minute)).Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "hit just before expiry")

	_, err = newTestCache(store, provider, cachedAt.Add(24*time.Hour+time.Minute)).Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls, "miss just after expiry")
}

func TestShowtimeCache_KeyIsCaseSensitive(t *testing.T) {
	store := newFakeCacheStore()
	provider := &fakeProvider{payload: []byte(seattlePayload)}
	c := newTestCache(store, provider, utc(12, 0))

	_, err := c.Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "seattle,wa", "F1")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestShowtimeCache_InvalidEntryIsDeletedAndRefetched(t *testing.T) {
	store := newFakeCacheStore()
	store.rows[cacheKey{"Seattle,WA", "F1"}] = model.CachedSearchResult{
		Location:  "Seattle,WA",
		Movie:     "F1",
		Payload:   []byte(`{"showtimes": null}`),
		ExpiresAt: utc(12, 0).Add(time.Hour),
	}
	provider := &fakeProvider{payload: []byte(seattlePayload)}
	c := newTestCache(store, provider, utc(12, 0))

	days, err := c.Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	assert.Len(t, days, 1)
	assert.Equal(t, 1, store.deletes)
	assert.Equal(t, 1, provider.calls)
	assert.JSONEq(t, seattlePayload, string(store.rows[cacheKey{"Seattle,WA", "F1"}].Payload))
}

func TestShowtimeCache_ProviderErrorIsNotCached(t *testing.T) {
	store := newFakeCacheStore()
	provider := &fakeProvider{err: errors.New("Invalid API key")}
	c := newTestCache(store, provider, utc(12, 0))

	_, err := c.Get(context.Background(), "Seattle,WA", "F1")
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "Invalid API key")
	assert.Empty(t, store.rows)
}

func TestShowtimeCache_WriteFailureStillReturnsData(t *testing.T) {
	store := newFakeCacheStore()
	store.upsertErr = errors.New("read-only replica")
	provider := &fakeProvider{payload: []byte(seattlePayload)}
	c := newTestCache(store, provider, utc(12, 0))

	days, err := c.Get(context.Background(), "Seattle,WA", "F1")
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestShowtimeCache_RequiresKey(t *testing.T) {
	provider := &fakeProvider{payload: []byte(seattlePayload)}
	c := newTestCache(newFakeCacheStore(), provider, utc(12, 0))

	_, err := c.Get(context.Background(), "", "F1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, provider.calls)
}

func TestDecodeShowtimes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"listing", `{"showtimes": [{"day": "TodayJul 8", "theaters": []}]}`, true},
		{"empty listing", `{"showtimes": []}`, true},
		{"missing", `{"movie_info": {}}`, false},
		{"null", `{"showtimes": null}`, false},
		{"wrong shape", `{"showtimes": {"day": "x"}}`, false},
		{"not json", `<html>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := decodeShowtimes([]byte(tt.raw))
			assert.Equal(t, tt.ok, ok)
		})
	}
}
