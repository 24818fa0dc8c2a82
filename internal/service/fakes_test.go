package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/repository"
)

type fakeEvents struct {
	events map[uuid.UUID]model.Event
	err    error
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &e, nil
}

type fakeAttendees struct {
	rows  []model.AttendeeAvailability
	count *int // overrides len(rows) when set
}

func (f *fakeAttendees) ListByEvent(context.Context, uuid.UUID) ([]model.AttendeeAvailability, error) {
	return f.rows, nil
}

func (f *fakeAttendees) CountByEvent(context.Context, uuid.UUID) (int, error) {
	if f.count != nil {
		return *f.count, nil
	}
	return len(f.rows), nil
}

type fakeAggregates struct {
	mu        sync.Mutex
	rows      map[int64]model.SlotAggregate
	upserts   int
	upsertErr error
}

func newFakeAggregates(rows ...model.SlotAggregate) *fakeAggregates {
	f := &fakeAggregates{rows: map[int64]model.SlotAggregate{}}
	for _, r := range rows {
		f.rows[r.TimeSlot.Unix()] = r
	}
	return f
}

func (f *fakeAggregates) UpsertBatch(_ context.Context, rows []model.SlotAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	for _, r := range rows {
		f.rows[r.TimeSlot.Unix()] = r
	}
	return nil
}

func (f *fakeAggregates) ListRange(_ context.Context, _ uuid.UUID, from, to time.Time) ([]model.SlotAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SlotAggregate
	for _, r := range f.rows {
		if !r.TimeSlot.Before(from) && !r.TimeSlot.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeSlot.Before(out[j].TimeSlot) })
	return out, nil
}

func (f *fakeAggregates) at(t time.Time) (model.SlotAggregate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[t.Unix()]
	return r, ok
}

type cacheKey struct{ location, movie string }

type fakeCacheStore struct {
	rows      map[cacheKey]model.CachedSearchResult
	deletes   int
	upsertErr error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{rows: map[cacheKey]model.CachedSearchResult{}}
}

func (f *fakeCacheStore) GetFresh(_ context.Context, location, movie string, now time.Time) (*model.CachedSearchResult, error) {
	r, ok := f.rows[cacheKey{location, movie}]
	if !ok || !r.ExpiresAt.After(now) {
		return nil, repository.ErrCacheMiss
	}
	return &r, nil
}

func (f *fakeCacheStore) Upsert(_ context.Context, c model.CachedSearchResult) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[cacheKey{c.Location, c.Movie}] = c
	return nil
}

func (f *fakeCacheStore) Delete(_ context.Context, location, movie string) error {
	f.deletes++
	delete(f.rows, cacheKey{location, movie})
	return nil
}

type fakeProvider struct {
	mu      sync.Mutex
	payload json.RawMessage
	err     error
	calls   int
}

func (f *fakeProvider) Search(context.Context, string, string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.payload, f.err
}

type fakeRanked struct {
	mu      sync.Mutex
	rows    map[uuid.UUID][]model.RankedShowtime
	ops     []string
	inserts int
}

func newFakeRanked() *fakeRanked {
	return &fakeRanked{rows: map[uuid.UUID][]model.RankedShowtime{}}
}

func (f *fakeRanked) DeleteByEvent(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete")
	delete(f.rows, id)
	return nil
}

func (f *fakeRanked) InsertBatch(_ context.Context, rows []model.RankedShowtime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "insert")
	f.inserts++
	for _, r := range rows {
		f.rows[r.EventID] = append(f.rows[r.EventID], r)
	}
	return nil
}

func (f *fakeRanked) ListByEvent(_ context.Context, id uuid.UUID) ([]model.RankedShowtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id], nil
}

func utc(h, m int) time.Time {
	return time.Date(2025, time.July, 8, h, m, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
