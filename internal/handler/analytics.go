package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

// SummaryReader lists an event's slot aggregates in time order.
type SummaryReader interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.SlotAggregate, error)
}

// AnalyticsHandler serves the per-slot availability summary.
type AnalyticsHandler struct {
	Summaries SummaryReader
	Log       *zap.Logger
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(summaries SummaryReader, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{Summaries: summaries, Log: log}
}

// Summary handles GET /v1/analytics/:event_id. An event that was never
// aggregated yields an empty list.
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	rows, err := h.Summaries.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if rows == nil {
		rows = []model.SlotAggregate{}
	}
	return c.JSON(http.StatusOK, rows)
}
