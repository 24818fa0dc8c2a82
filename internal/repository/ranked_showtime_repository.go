package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

// RankedShowtimeRepo manages movie_showtimes, the ranked candidate list of
// each event. The list is replaced as a whole; callers delete and then
// insert, outside of a transaction.
type RankedShowtimeRepo struct {
	db *sql.DB
}

// NewRankedShowtimeRepo constructs a RankedShowtimeRepo with the given DB handle.
func NewRankedShowtimeRepo(db *sql.DB) *RankedShowtimeRepo {
	return &RankedShowtimeRepo{db: db}
}

// DeleteByEvent removes every ranked showtime of the event.
func (r *RankedShowtimeRepo) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM movie_showtimes WHERE event_id = ?`, eventID)
	return err
}

// InsertBatch bulk-inserts showtimes in one statement. An empty batch is a
// no-op.
func (r *RankedShowtimeRepo) InsertBatch(ctx context.Context, rows []model.RankedShowtime) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO movie_showtimes (
		event_id, theater_name, theater_address, distance,
		start_time, showing_type, available_users, availability_percentage,
		required_time_slots
	) VALUES `)
	args := make([]any, 0, len(rows)*9)
	for i, s := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		users, err := encodeUUIDs(s.AvailableUsers)
		if err != nil {
			return err
		}
		slots, err := encodeTimes(s.RequiredTimeSlots)
		if err != nil {
			return err
		}
		args = append(args,
			s.EventID, s.TheaterName, s.TheaterAddress, s.Distance,
			s.StartTime.UTC(), s.ShowingType, users, s.AvailabilityPercentage,
			slots,
		)
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// ListByEvent returns the persisted list, highest availability first and
// earliest start among equals.
func (r *RankedShowtimeRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.RankedShowtime, error) {
	const q = `SELECT event_id, theater_name, theater_address, distance, start_time, showing_type,
                      available_users, availability_percentage, required_time_slots
               FROM movie_showtimes
               WHERE event_id = ?
               ORDER BY availability_percentage DESC, start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RankedShowtime{}
	for rows.Next() {
		var (
			s            model.RankedShowtime
			addr, dist   sql.NullString
			kind         sql.NullString
			users, slots []byte
		)
		if err := rows.Scan(
			&s.EventID, &s.TheaterName, &addr, &dist, &s.StartTime, &kind,
			&users, &s.AvailabilityPercentage, &slots,
		); err != nil {
			return nil, err
		}
		s.TheaterAddress, s.Distance, s.ShowingType = addr.String, dist.String, kind.String
		if s.AvailableUsers, err = decodeUUIDs(users); err != nil {
			return nil, err
		}
		if s.RequiredTimeSlots, err = decodeTimes(slots); err != nil {
			return nil, err
		}
		s.StartTime = s.StartTime.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
