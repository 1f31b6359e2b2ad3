package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// PublicHandler serves the unauthenticated browse surface: room type
// listings and availability lookups.  Responses here are the natural
// candidates for the Redis response cache middleware.
type PublicHandler struct {
	Bookings *service.BookingService
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(bookings *service.BookingService) *PublicHandler {
	if bookings == nil {
		panic("nil booking service passed to NewPublicHandler")
	}
	return &PublicHandler{Bookings: bookings}
}

// RoomTypes handles GET /v1/room-types and lists the active room types
// with their rates and capacity.
func (h *PublicHandler) RoomTypes(c echo.Context) error {
	types, err := h.Bookings.RoomTypes(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_types": types})
}

// Availability handles GET /v1/availability?check_in=...&check_out=...
// It returns, per active room type, the count of free rooms and the
// priced total for the window.
func (h *PublicHandler) Availability(c echo.Context) error {
	checkIn, err := parseStamp(c.QueryParam("check_in"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in"})
	}
	checkOut, err := parseStamp(c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out"})
	}
	out, err := h.Bookings.Availability(c.Request().Context(), checkIn, checkOut)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"availability": out})
}

// RoomAvailability handles GET /v1/rooms/:id/availability.  It answers
// whether one specific room is sellable for the window, derived from
// the allocation ledger and maintenance calendar.
func (h *PublicHandler) RoomAvailability(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	checkIn, err := parseStamp(c.QueryParam("check_in"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in"})
	}
	checkOut, err := parseStamp(c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out"})
	}
	free, err := h.Bookings.CheckRoomFree(c.Request().Context(), roomID, checkIn, checkOut)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "available": free})
}
