package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/timeslot"
)

// ShowtimeMatcher computes which attendees are free for the whole of a
// candidate showtime.
type ShowtimeMatcher struct {
	aggregates AggregateReader
	attendees  AttendeeReader
}

// NewShowtimeMatcher wires a matcher to the aggregate and attendee stores.
func NewShowtimeMatcher(aggregates AggregateReader, attendees AttendeeReader) *ShowtimeMatcher {
	return &ShowtimeMatcher{aggregates: aggregates, attendees: attendees}
}

// Match intersects the available users of every slot that overlaps
// [start, start+duration). Aggregates are fetched for the half-hour
// aligned cover of the interval, one boundary past each edge, and then
// trimmed to true overlaps. When nothing overlaps, the result reports the
// untrimmed cover as RequiredTimeSlots.
func (m *ShowtimeMatcher) Match(ctx context.Context, eventID uuid.UUID, start time.Time, durationMinutes int) (model.MatchResult, error) {
	if durationMinutes <= 0 {
		return model.MatchResult{}, validationf("duration must be positive, got %d", durationMinutes)
	}
	start = start.UTC()
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	lo, hi := timeslot.Floor(start), timeslot.Ceil(end)
	expanded := timeslot.Range(lo, hi)

	rows, err := m.aggregates.ListRange(ctx, eventID, lo, hi)
	if err != nil {
		return model.MatchResult{}, err
	}

	var covering []model.SlotAggregate
	for _, r := range rows {
		if timeslot.Overlaps(r.TimeSlot, start, end) {
			covering = append(covering, r)
		}
	}
	if len(covering) == 0 {
		return model.MatchResult{
			AvailableUsers:         []uuid.UUID{},
			AvailabilityPercentage: 0,
			RequiredTimeSlots:      expanded,
		}, nil
	}

	// Count fresh: attendees may have changed since the last aggregation.
	total, err := m.attendees.CountByEvent(ctx, eventID)
	if err != nil {
		return model.MatchResult{}, err
	}

	users := intersect(covering)
	slots := make([]time.Time, len(covering))
	for i, r := range covering {
		slots[i] = r.TimeSlot
	}
	return model.MatchResult{
		AvailableUsers:         users,
		AvailabilityPercentage: percentage(len(users), total),
		RequiredTimeSlots:      slots,
	}, nil
}

// intersect keeps the users present in every row, in the order of the
// first row.
func intersect(rows []model.SlotAggregate) []uuid.UUID {
	out := append([]uuid.UUID{}, rows[0].AvailableUserIDs...)
	for _, r := range rows[1:] {
		in := make(map[uuid.UUID]struct{}, len(r.AvailableUserIDs))
		for _, id := range r.AvailableUserIDs {
			in[id] = struct{}{}
		}
		kept := out[:0]
		for _, id := range out {
			if _, ok := in[id]; ok {
				kept = append(kept, id)
			}
		}
		out = kept
	}
	return out
}
