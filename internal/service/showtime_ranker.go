package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/showtime-matcher/internal/metrics"
	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/timeslot"
)

// ShowtimeLister yields the provider listing for a (location, movie) key.
type ShowtimeLister interface {
	Get(ctx context.Context, location, movie string) ([]model.ShowtimeDay, error)
}

// Matcher scores one candidate showtime against attendee availability.
type Matcher interface {
	Match(ctx context.Context, eventID uuid.UUID, start time.Time, durationMinutes int) (model.MatchResult, error)
}

// DefaultMatchConcurrency bounds simultaneous Match calls per ranking run.
const DefaultMatchConcurrency = 8

// ShowtimeRanker turns a provider listing into the ranked, persisted
// showtime list of an event.
type ShowtimeRanker struct {
	events      EventReader
	listings    ShowtimeLister
	matcher     Matcher
	store       RankedShowtimeStore
	log         *zap.Logger
	now         func() time.Time
	concurrency int
}

// NewShowtimeRanker wires a ranker. concurrency <= 0 selects
// DefaultMatchConcurrency.
func NewShowtimeRanker(events EventReader, listings ShowtimeLister, matcher Matcher, store RankedShowtimeStore, log *zap.Logger, concurrency int) *ShowtimeRanker {
	if concurrency <= 0 {
		concurrency = DefaultMatchConcurrency
	}
	return &ShowtimeRanker{
		events:      events,
		listings:    listings,
		matcher:     matcher,
		store:       store,
		log:         log,
		now:         time.Now,
		concurrency: concurrency,
	}
}

// candidate is one flattened showing from the provider listing.
type candidate struct {
	theater model.Theater
	format  string
	day     string
	clock   string
}

// CreateShowtimes ranks every showing of the movie near location for the
// event and replaces the event's persisted list with the result. Only
// showings at least one attendee can make are kept, highest availability
// first. The previous list is deleted before the new one is inserted, so
// readers may briefly see an empty list.
func (r *ShowtimeRanker) CreateShowtimes(ctx context.Context, eventID uuid.UUID, location, movie string, durationMinutes int) ([]model.RankedShowtime, error) {
	if location == "" || movie == "" {
		return nil, validationf("location and movie are required")
	}
	if durationMinutes <= 0 {
		return nil, validationf("duration must be positive, got %d", durationMinutes)
	}
	log := r.log.With(zap.String("event_id", eventID.String()))

	var (
		event   *model.Event
		listing []model.ShowtimeDay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = r.events.GetByID(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		listing, err = r.listings.Get(gctx, location, movie)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc, err := timeslot.LoadZone(event.Timezone)
	if err != nil {
		return nil, err
	}

	candidates := flatten(listing, *event)
	ranked := make([]*model.RankedShowtime, len(candidates))
	mg, mctx := errgroup.WithContext(ctx)
	mg.SetLimit(r.concurrency)
	for i, c := range candidates {
		start := r.startTime(log, c, loc)
		mg.Go(func() error {
			res, err := r.matcher.Match(mctx, eventID, start, durationMinutes)
			if err != nil {
				return err
			}
			if res.AvailabilityPercentage <= 0 {
				return nil
			}
			ranked[i] = &model.RankedShowtime{
				EventID:                eventID,
				TheaterName:            c.theater.Name,
				TheaterAddress:         c.theater.Address,
				Distance:               c.theater.Distance,
				StartTime:              start,
				ShowingType:            c.format,
				AvailableUsers:         res.AvailableUsers,
				AvailabilityPercentage: res.AvailabilityPercentage,
				RequiredTimeSlots:      res.RequiredTimeSlots,
			}
			return nil
		})
	}
	if err := mg.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.RankedShowtime, 0, len(ranked))
	for _, s := range ranked {
		if s != nil {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvailabilityPercentage > out[j].AvailabilityPercentage
	})

	if err := r.store.DeleteByEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if err := r.store.InsertBatch(ctx, out); err != nil {
			return nil, err
		}
	}
	log.Info("ranked showtimes saved",
		zap.Int("candidates", len(candidates)),
		zap.Int("saved", len(out)),
	)
	return out, nil
}

// ListShowtimes returns the persisted ranked list of the event.
func (r *ShowtimeRanker) ListShowtimes(ctx context.Context, eventID uuid.UUID) ([]model.RankedShowtime, error) {
	return r.store.ListByEvent(ctx, eventID)
}

// flatten expands day -> theater -> showing -> time into candidates,
// dropping theaters the event's chain filter rejects.
func flatten(listing []model.ShowtimeDay, event model.Event) []candidate {
	var out []candidate
	for _, day := range listing {
		for _, th := range day.Theaters {
			if !event.AcceptsTheater(th.Name) {
				continue
			}
			for _, sh := range th.Showing {
				for _, clock := range sh.Time {
					out = append(out, candidate{theater: th, format: sh.Type, day: day.Day, clock: clock})
				}
			}
		}
	}
	return out
}

// startTime parses the candidate's labels as wall-clock time in loc for
// the current year. An unparseable label falls back to the current time
// so the rest of the batch still ranks.
func (r *ShowtimeRanker) startTime(log *zap.Logger, c candidate, loc *time.Location) time.Time {
	now := r.now()
	day, err := ParseDayLabel(c.day)
	if err == nil {
		var clock TimeLabel
		if clock, err = ParseTimeLabel(c.clock); err == nil {
			return ShowtimeStart(day, clock, now.In(loc).Year(), loc)
		}
	}
	metrics.ShowtimeParseFailures.Inc()
	log.Warn("showtime label unparseable, using current time",
		zap.String("theater", c.theater.Name),
		zap.String("day", c.day),
		zap.String("time", c.clock),
		zap.Error(err),
	)
	return now.UTC()
}
