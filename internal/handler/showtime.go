package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/service"
)

// Ranker creates and lists an event's ranked showtimes.
type Ranker interface {
	CreateShowtimes(ctx context.Context, eventID uuid.UUID, location, movie string, durationMinutes int) ([]model.RankedShowtime, error)
	ListShowtimes(ctx context.Context, eventID uuid.UUID) ([]model.RankedShowtime, error)
}

// ShowtimeHandler exposes the cached provider lookup, ranking, the ranked
// list and single-showtime matching.
type ShowtimeHandler struct {
	Listings service.ShowtimeLister
	Ranker   Ranker
	Matcher  service.Matcher
	Log      *zap.Logger
}

// NewShowtimeHandler constructs a ShowtimeHandler and panics if a
// dependency is nil.
func NewShowtimeHandler(listings service.ShowtimeLister, ranker Ranker, matcher service.Matcher, log *zap.Logger) *ShowtimeHandler {
	if listings == nil || ranker == nil || matcher == nil || log == nil {
		panic("nil dependency passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{Listings: listings, Ranker: ranker, Matcher: matcher, Log: log}
}

type searchRequest struct {
	Location string `query:"location" validate:"required"`
	Movie    string `query:"movie" validate:"required"`
}

// Search handles GET /v1/showtimes/search?location=&movie= and returns the
// provider listing, from cache when fresh.
func (h *ShowtimeHandler) Search(c echo.Context) error {
	var req searchRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	days, err := h.Listings.Get(c.Request().Context(), req.Location, req.Movie)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if days == nil {
		days = []model.ShowtimeDay{}
	}
	return c.JSON(http.StatusOK, days)
}

type createShowtimesRequest struct {
	Location string `json:"location" validate:"required"`
	Movie    string `json:"movie" validate:"required"`
	Duration int    `json:"duration" validate:"required,gt=0,lte=600"`
}

// Create handles POST /v1/showtimes/create/:event_id. The event's stored
// list is replaced by the new ranking.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req createShowtimesRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ranked, err := h.Ranker.CreateShowtimes(c.Request().Context(), eventID, req.Location, req.Movie, req.Duration)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":   fmt.Sprintf("saved %d showtimes for event %s", len(ranked), eventID),
		"showtimes": ranked,
	})
}

// List handles GET /v1/showtimes/:event_id.
func (h *ShowtimeHandler) List(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ranked, err := h.Ranker.ListShowtimes(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if ranked == nil {
		ranked = []model.RankedShowtime{}
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "showtimes": ranked})
}

type matchRequest struct {
	Start    string `query:"start" validate:"required"`
	Duration int    `query:"duration" validate:"required,gt=0"`
}

// Match handles GET /v1/showtimes/:event_id/match?start=<RFC3339>&duration=<minutes>.
func (h *ShowtimeHandler) Match(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req matchRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return respondError(c, h.Log, fmt.Errorf("%w: start must be RFC3339", service.ErrValidation))
	}
	res, err := h.Matcher.Match(c.Request().Context(), eventID, start, req.Duration)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
