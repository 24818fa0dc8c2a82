package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

// EventReader loads event metadata.
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

// AttendeeReader loads attendee availability rows.
type AttendeeReader interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.AttendeeAvailability, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error)
}

// AggregateWriter persists slot aggregates with upsert semantics.
type AggregateWriter interface {
	UpsertBatch(ctx context.Context, rows []model.SlotAggregate) error
}

// AggregateReader reads slot aggregates in an inclusive time range.
type AggregateReader interface {
	ListRange(ctx context.Context, eventID uuid.UUID, from, to time.Time) ([]model.SlotAggregate, error)
}

// SearchCacheStore persists raw provider payloads by (location, movie).
type SearchCacheStore interface {
	GetFresh(ctx context.Context, location, movie string, now time.Time) (*model.CachedSearchResult, error)
	Upsert(ctx context.Context, c model.CachedSearchResult) error
	Delete(ctx context.Context, location, movie string) error
}

// ShowtimeProvider performs the external showtime search and returns the
// provider's raw JSON document.
type ShowtimeProvider interface {
	Search(ctx context.Context, location, movie string) (json.RawMessage, error)
}

// RankedShowtimeStore persists an event's ranked showtime list.
type RankedShowtimeStore interface {
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
	InsertBatch(ctx context.Context, rows []model.RankedShowtime) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.RankedShowtime, error)
}
