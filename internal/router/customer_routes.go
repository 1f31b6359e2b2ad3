package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can book
// a room type, lock a specific room while paying, confirm against the
// lock, and manage their own bookings.
func RegisterCustomer(e *echo.Echo, b *handler.CustomerHandler, l *handler.LockHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// Type-level booking flow: create PENDING, then confirm payment.
	g.POST("/bookings", b.CreateBooking)
	g.POST("/bookings/:id/confirm", b.ConfirmPayment)
	g.POST("/bookings/:id/cancel", b.CancelBooking)
	g.GET("/bookings", b.ListBookings)
	g.GET("/bookings/:id", b.GetBooking)

	// Room-level lock flow: hold one specific room while completing
	// payment, then confirm with the lock token or release.
	g.POST("/rooms/:id/lock", l.LockRoom)
	g.DELETE("/rooms/:id/lock", l.UnlockRoom)
	g.POST("/rooms/:id/confirm", l.ConfirmLock)
}
