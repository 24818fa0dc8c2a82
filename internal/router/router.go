package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/showtime-matcher/internal/handler"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Availability *handler.AvailabilityHandler
	Analytics    *handler.AnalyticsHandler
	Showtimes    *handler.ShowtimeHandler
	DB           handler.Pinger
}

// Middlewares are applied to specific route groups. Nil entries are skipped.
type Middlewares struct {
	// AnalyticsCache fronts the summary read.
	AnalyticsCache echo.MiddlewareFunc
	// ProviderLimit guards routes that may call the paid showtime provider.
	ProviderLimit echo.MiddlewareFunc
}

// RegisterRoutes registers the operational endpoints and the /v1 API on e.
func RegisterRoutes(e *echo.Echo, h Handlers, mw Middlewares) {
	e.GET("/healthz", handler.Health)
	if h.DB != nil {
		e.GET("/readyz", handler.Ready(h.DB))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")

	a := v1.Group("/availabilities")
	a.GET("/:event_id", h.Availability.List)
	a.GET("/:event_id/:user_id", h.Availability.Get)
	a.POST("", h.Availability.Create)
	a.PUT("/:event_id", h.Availability.Update)
	a.DELETE("/:event_id/:user_id", h.Availability.Delete)

	v1.GET("/analytics/:event_id", h.Analytics.Summary, only(mw.AnalyticsCache)...)

	s := v1.Group("/showtimes")
	s.GET("/search", h.Showtimes.Search, only(mw.ProviderLimit)...)
	s.POST("/create/:event_id", h.Showtimes.Create, only(mw.ProviderLimit)...)
	s.GET("/:event_id", h.Showtimes.List)
	s.GET("/:event_id/match", h.Showtimes.Match)
}

func only(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := mws[:0]
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
