package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

// SlotAggregateRepo manages the availability_summary table. Rows are keyed
// by (event_id, time_slot) and are only ever upserted, never partially
// deleted.
type SlotAggregateRepo struct {
	db *sql.DB
}

// NewSlotAggregateRepo constructs a SlotAggregateRepo with the given DB handle.
func NewSlotAggregateRepo(db *sql.DB) *SlotAggregateRepo {
	return &SlotAggregateRepo{db: db}
}

// UpsertBatch writes all rows in a single statement. On a key conflict the
// percentage, user list and updated_at are overwritten. An empty batch is
// a no-op.
func (r *SlotAggregateRepo) UpsertBatch(ctx context.Context, rows []model.SlotAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO availability_summary (event_id, time_slot, availability_pct, available_user_ids, updated_at) VALUES `)
	args := make([]any, 0, len(rows)*5)
	for i, s := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		ids, err := encodeUUIDs(s.AvailableUserIDs)
		if err != nil {
			return err
		}
		args = append(args, s.EventID, s.TimeSlot.UTC(), s.AvailabilityPct, ids, s.UpdatedAt.UTC())
	}
	b.WriteString(` ON DUPLICATE KEY UPDATE
		availability_pct = VALUES(availability_pct),
		available_user_ids = VALUES(available_user_ids),
		updated_at = VALUES(updated_at)`)
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// ListRange returns the aggregates for the event whose time_slot lies in
// [from, to], ordered by time_slot.
func (r *SlotAggregateRepo) ListRange(ctx context.Context, eventID uuid.UUID, from, to time.Time) ([]model.SlotAggregate, error) {
	const q = `SELECT event_id, time_slot, availability_pct, available_user_ids, updated_at
               FROM availability_summary
               WHERE event_id = ? AND time_slot BETWEEN ? AND ?
               ORDER BY time_slot ASC`
	return r.query(ctx, q, eventID, from.UTC(), to.UTC())
}

// ListByEvent returns every aggregate of the event ordered by time_slot.
func (r *SlotAggregateRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.SlotAggregate, error) {
	const q = `SELECT event_id, time_slot, availability_pct, available_user_ids, updated_at
               FROM availability_summary
               WHERE event_id = ?
               ORDER BY time_slot ASC`
	return r.query(ctx, q, eventID)
}

func (r *SlotAggregateRepo) query(ctx context.Context, q string, args ...any) ([]model.SlotAggregate, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SlotAggregate{}
	for rows.Next() {
		var (
			s   model.SlotAggregate
			raw []byte
		)
		if err := rows.Scan(&s.EventID, &s.TimeSlot, &s.AvailabilityPct, &raw, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if s.AvailableUserIDs, err = decodeUUIDs(raw); err != nil {
			return nil, err
		}
		s.TimeSlot = s.TimeSlot.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
