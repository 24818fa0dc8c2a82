package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/timeslot"
)

// EventRepo reads event metadata. Events are created and edited by the
// event CRUD layer; the matching engine only needs the timezone, the
// candidate dates and the chain filter.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// GetByID retrieves an event by its ID. It returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	const q = `SELECT id, timezone, potential_dates, chain FROM events WHERE id = ?`
	var (
		e     model.Event
		tz    sql.NullString
		dates []byte
		chain sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &tz, &dates, &chain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	e.Timezone = tz.String
	e.Chain = chain.String
	// An unknown zone is reported by whoever uses the dates; timestamps
	// then fall back to their UTC day.
	loc, zerr := timeslot.LoadZone(e.Timezone)
	if zerr != nil {
		loc = time.UTC
	}
	if e.PotentialDates, err = decodeDates(dates, loc); err != nil {
		return nil, err
	}
	return &e, nil
}
