package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// DeskHandler serves the front-desk surface: arrival, departure and
// no-show processing, plus admin-forced cancellation inside the 24-hour
// window.
type DeskHandler struct {
	Bookings *service.BookingService
}

// NewDeskHandler constructs a DeskHandler.
func NewDeskHandler(bookings *service.BookingService) *DeskHandler {
	if bookings == nil {
		panic("nil booking service passed to NewDeskHandler")
	}
	return &DeskHandler{Bookings: bookings}
}

// CheckIn handles POST /v1/staff/bookings/:id/check-in.  The presented
// identity document number is hashed before storage; the raw value is
// never persisted.
func (h *DeskHandler) CheckIn(c echo.Context) error {
	staffID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		IdentityDocument string `json:"identity_document"`
	}
	if err := c.Bind(&body); err != nil || body.IdentityDocument == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identity_document is required"})
	}
	b, err := h.Bookings.CheckIn(c.Request().Context(), bookingID, staffID, body.IdentityDocument)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// CheckOut handles POST /v1/staff/bookings/:id/check-out.  Optional
// extra charges (minibar, damages) are added to the total and charged.
func (h *DeskHandler) CheckOut(c echo.Context) error {
	staffID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		ExtraChargesCents uint32 `json:"extra_charges_cents"`
	}
	_ = c.Bind(&body)
	b, err := h.Bookings.CheckOut(c.Request().Context(), bookingID, staffID, body.ExtraChargesCents)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// NoShow handles POST /v1/staff/bookings/:id/no-show.  Permitted once
// the check-in time has passed without arrival; the full amount is
// forfeited.
func (h *DeskHandler) NoShow(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Bookings.MarkNoShow(c.Request().Context(), bookingID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// ForceCancel handles POST /v1/staff/bookings/:id/cancel.  Admin
// override that may cancel inside the 24-hour window; the 100% fee tier
// applies there.
func (h *DeskHandler) ForceCancel(c echo.Context) error {
	staffID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body)
	if body.Reason == "" {
		body.Reason = "cancelled by staff"
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), bookingID, staffID, body.Reason, true)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}
