package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/repository"
	"github.com/iliyamo/showtime-matcher/internal/service"
)

// respondError writes err as {"error": code, "message": text}. Unknown
// errors are logged and reported without detail.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, repository.ErrEventNotFound):
		status, code = http.StatusNotFound, "event_not_found"
	case errors.Is(err, repository.ErrAttendeeNotFound):
		status, code = http.StatusNotFound, "attendee_not_found"
	case errors.Is(err, repository.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrProvider):
		status, code = http.StatusBadGateway, "provider_error"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	return c.JSON(status, echo.Map{"error": code, "message": msg})
}

// uuidParam parses a path parameter as a UUID.
func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", service.ErrValidation, name)
	}
	return id, nil
}

// bindValid binds the request into v and runs the registered validator.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return fmt.Errorf("%w: %v", service.ErrValidation, he.Message)
		}
		return fmt.Errorf("%w: invalid request", service.ErrValidation)
	}
	return c.Validate(v)
}
