package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

// AttendeeRepo manages the event_attendees table: one row per (event, user)
// holding the instants that attendee marked free.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo constructs an AttendeeRepo with the given DB handle.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo {
	return &AttendeeRepo{db: db}
}

// ListByEvent returns every attendee row for the event. When no attendee
// has submitted availability it returns an empty slice and nil error.
func (r *AttendeeRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.AttendeeAvailability, error) {
	const q = `SELECT event_id, user_id, availability, role FROM event_attendees WHERE event_id = ? ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AttendeeAvailability{}
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one attendee row or ErrAttendeeNotFound.
func (r *AttendeeRepo) Get(ctx context.Context, eventID, userID uuid.UUID) (*model.AttendeeAvailability, error) {
	const q = `SELECT event_id, user_id, availability, role FROM event_attendees WHERE event_id = ? AND user_id = ?`
	a, err := scanAttendee(r.db.QueryRowContext(ctx, q, eventID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttendeeNotFound
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendee(s scanner) (*model.AttendeeAvailability, error) {
	var (
		a    model.AttendeeAvailability
		raw  []byte
		role sql.NullString
	)
	if err := s.Scan(&a.EventID, &a.UserID, &raw, &role); err != nil {
		return nil, err
	}
	times, err := decodeTimes(raw)
	if err != nil {
		return nil, err
	}
	a.Availability = times
	a.Role = role.String
	return &a, nil
}

// CountByEvent returns the number of attendee rows for the event,
// including attendees whose availability set is empty.
func (r *AttendeeRepo) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

// Create inserts a new attendee row. A second submission for the same
// (event, user) returns ErrConflict.
func (r *AttendeeRepo) Create(ctx context.Context, a *model.AttendeeAvailability) error {
	raw, err := encodeTimes(a.Availability)
	if err != nil {
		return err
	}
	const q = `INSERT INTO event_attendees (event_id, user_id, availability, role) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.EventID, a.UserID, raw, nullable(a.Role)); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Update replaces the availability and role of an existing attendee row.
// It returns ErrAttendeeNotFound when the row does not exist. The DSN sets
// clientFoundRows so an update with identical values still counts the row.
func (r *AttendeeRepo) Update(ctx context.Context, a *model.AttendeeAvailability) error {
	raw, err := encodeTimes(a.Availability)
	if err != nil {
		return err
	}
	const q = `UPDATE event_attendees SET availability = ?, role = ? WHERE event_id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, raw, nullable(a.Role), a.EventID, a.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttendeeNotFound
	}
	return nil
}

// Delete removes an attendee row. It returns ErrAttendeeNotFound when
// nothing was deleted.
func (r *AttendeeRepo) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttendeeNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
