package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring systems to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// query per-type availability and check a single room's window without a
// token.  These routes are the intended targets of the Redis response
// cache middleware.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	// Room type catalogue.
	e.GET("/v1/room-types", p.RoomTypes)
	// Per-type availability summary for a stay window.
	e.GET("/v1/availability", p.Availability)
	// Availability of one specific room for a stay window.
	e.GET("/v1/rooms/:id/availability", p.RoomAvailability)
}
