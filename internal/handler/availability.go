package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/model"
	"github.com/iliyamo/showtime-matcher/internal/service"
)

// AttendeeStore is the attendee persistence used by AvailabilityHandler.
type AttendeeStore interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.AttendeeAvailability, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*model.AttendeeAvailability, error)
	Create(ctx context.Context, a *model.AttendeeAvailability) error
	Update(ctx context.Context, a *model.AttendeeAvailability) error
	Delete(ctx context.Context, eventID, userID uuid.UUID) error
}

// AvailabilityHandler serves attendee availability writes. Every
// successful write submits a recompute of the event's slot aggregates;
// the response does not wait for it.
type AvailabilityHandler struct {
	Attendees AttendeeStore
	Recompute service.RecomputeTrigger
	Log       *zap.Logger
}

// NewAvailabilityHandler constructs an AvailabilityHandler and panics if a
// dependency is nil.
func NewAvailabilityHandler(attendees AttendeeStore, recompute service.RecomputeTrigger, log *zap.Logger) *AvailabilityHandler {
	if attendees == nil || recompute == nil || log == nil {
		panic("nil dependency passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Attendees: attendees, Recompute: recompute, Log: log}
}

type availabilityResponse struct {
	EventID      uuid.UUID   `json:"event_id"`
	UserID       uuid.UUID   `json:"user_id"`
	Availability []time.Time `json:"availability"`
	Role         string      `json:"role,omitempty"`
}

func toAvailabilityResponse(a model.AttendeeAvailability) availabilityResponse {
	times := a.Availability
	if times == nil {
		times = []time.Time{}
	}
	return availabilityResponse{EventID: a.EventID, UserID: a.UserID, Availability: times, Role: a.Role}
}

// List handles GET /v1/availabilities/:event_id.
func (h *AvailabilityHandler) List(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	rows, err := h.Attendees.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]availabilityResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAvailabilityResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/availabilities/:event_id/:user_id.
func (h *AvailabilityHandler) Get(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	a, err := h.Attendees.Get(c.Request().Context(), eventID, userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toAvailabilityResponse(*a))
}

type createAvailabilityRequest struct {
	EventID      string      `json:"event_id" validate:"required,uuid"`
	UserID       string      `json:"user_id" validate:"required,uuid"`
	Availability []time.Time `json:"availability" validate:"required"`
	Role         string      `json:"role" validate:"omitempty,max=64"`
}

// Create handles POST /v1/availabilities.
func (h *AvailabilityHandler) Create(c echo.Context) error {
	var req createAvailabilityRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	a := &model.AttendeeAvailability{
		EventID:      uuid.MustParse(req.EventID),
		UserID:       uuid.MustParse(req.UserID),
		Availability: req.Availability,
		Role:         req.Role,
	}
	if err := h.Attendees.Create(c.Request().Context(), a); err != nil {
		return respondError(c, h.Log, err)
	}
	h.Recompute.Trigger(a.EventID, "availability.created")
	return c.JSON(http.StatusCreated, toAvailabilityResponse(*a))
}

type updateAvailabilityRequest struct {
	UserID       string      `json:"user_id" validate:"required,uuid"`
	Availability []time.Time `json:"availability" validate:"required"`
	Role         string      `json:"role" validate:"omitempty,max=64"`
}

// Update handles PUT /v1/availabilities/:event_id.
func (h *AvailabilityHandler) Update(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req updateAvailabilityRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	a := &model.AttendeeAvailability{
		EventID:      eventID,
		UserID:       uuid.MustParse(req.UserID),
		Availability: req.Availability,
		Role:         req.Role,
	}
	if err := h.Attendees.Update(c.Request().Context(), a); err != nil {
		return respondError(c, h.Log, err)
	}
	h.Recompute.Trigger(eventID, "availability.updated")
	return c.JSON(http.StatusOK, toAvailabilityResponse(*a))
}

// Delete handles DELETE /v1/availabilities/:event_id/:user_id.
func (h *AvailabilityHandler) Delete(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Attendees.Delete(c.Request().Context(), eventID, userID); err != nil {
		return respondError(c, h.Log, err)
	}
	h.Recompute.Trigger(eventID, "availability.deleted")
	return c.NoContent(http.StatusNoContent)
}
