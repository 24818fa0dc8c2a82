package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/showtime-matcher/internal/metrics"
	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/repository"
	"github.com/iliyamo/showtime-matcher/internal/timeslot"
)

// AvailabilityAggregator turns attendee free marks into per-slot summaries.
type AvailabilityAggregator struct {
	events     EventReader
	attendees  AttendeeReader
	aggregates AggregateWriter
	log        *zap.Logger
	now        func() time.Time
}

// NewAvailabilityAggregator wires an aggregator to its stores.
func NewAvailabilityAggregator(events EventReader, attendees AttendeeReader, aggregates AggregateWriter, log *zap.Logger) *AvailabilityAggregator {
	return &AvailabilityAggregator{
		events:     events,
		attendees:  attendees,
		aggregates: aggregates,
		log:        log,
		now:        time.Now,
	}
}

// Recompute rebuilds every slot aggregate of the event from the current
// attendee rows. It is meant to run detached from the write that
// triggered it: a missing event or any failure is logged and swallowed.
// Concurrent runs for the same event are last-writer-wins per row.
func (a *AvailabilityAggregator) Recompute(ctx context.Context, eventID uuid.UUID) {
	log := a.log.With(zap.String("event_id", eventID.String()))

	var (
		event     *model.Event
		attendees []model.AttendeeAvailability
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = a.events.GetByID(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		attendees, err = a.attendees.ListByEvent(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			log.Warn("recompute skipped: event not found")
			metrics.RecomputeRuns.WithLabelValues("not_found").Inc()
			return
		}
		log.Error("recompute load failed", zap.Error(err))
		metrics.RecomputeRuns.WithLabelValues("error").Inc()
		return
	}

	rows, err := BuildAggregates(*event, attendees, a.now())
	if err != nil {
		log.Error("recompute build failed", zap.Error(err))
		metrics.RecomputeRuns.WithLabelValues("error").Inc()
		return
	}
	if err := a.aggregates.UpsertBatch(ctx, rows); err != nil {
		log.Error("recompute upsert failed", zap.Error(err), zap.Int("rows", len(rows)))
		metrics.RecomputeRuns.WithLabelValues("error").Inc()
		return
	}
	metrics.RecomputeRuns.WithLabelValues("ok").Inc()
	log.Info("availability summary updated", zap.Int("rows", len(rows)), zap.Int("attendees", len(attendees)))
}

// BuildAggregates computes one SlotAggregate per generated slot of every
// potential date. A potential date that carries a time of day is read in
// the event's zone. The denominator is the number of attendee rows,
// including attendees with no free marks.
func BuildAggregates(event model.Event, attendees []model.AttendeeAvailability, now time.Time) ([]model.SlotAggregate, error) {
	loc, err := timeslot.LoadZone(event.Timezone)
	if err != nil {
		return nil, err
	}

	index := make(map[int64][]uuid.UUID)
	for _, att := range attendees {
		seen := make(map[int64]bool, len(att.Availability))
		for _, t := range att.Availability {
			k := timeslot.Canonical(t).Unix()
			if seen[k] {
				continue
			}
			seen[k] = true
			index[k] = append(index[k], att.UserID)
		}
	}

	total := len(attendees)
	updated := now.UTC()
	var out []model.SlotAggregate
	for _, date := range event.PotentialDates {
		for _, slot := range timeslot.ForDate(timeslot.CalendarDay(date, loc), loc) {
			users := index[slot.Unix()]
			if users == nil {
				users = []uuid.UUID{}
			}
			out = append(out, model.SlotAggregate{
				EventID:          event.ID,
				TimeSlot:         slot,
				AvailabilityPct:  percentage(len(users), total),
				AvailableUserIDs: users,
				UpdatedAt:        updated,
			})
		}
	}
	return out, nil
}

// percentage is round(100*n/total), and 0 when total is 0.
func percentage(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}
