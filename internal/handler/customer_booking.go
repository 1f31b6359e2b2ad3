package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// CustomerHandler serves the authenticated customer surface: creating
// bookings by room type, confirming payment, cancelling and listing.
// All methods assume JWT authentication and role validation have
// already been performed by middleware.
type CustomerHandler struct {
	Bookings *service.BookingService
}

// NewCustomerHandler constructs a CustomerHandler.
func NewCustomerHandler(bookings *service.BookingService) *CustomerHandler {
	if bookings == nil {
		panic("nil booking service passed to NewCustomerHandler")
	}
	return &CustomerHandler{Bookings: bookings}
}

// CreateBooking handles POST /v1/bookings.  The customer books a room
// type for a window; no physical room is assigned until payment
// confirms.  Returns 201 with the PENDING booking.
func (h *CustomerHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RoomTypeID     uint64 `json:"room_type_id"`
		GuestName      string `json:"guest_name"`
		GuestsAdults   int    `json:"guests_adults"`
		GuestsChildren int    `json:"guests_children"`
		CheckIn        string `json:"check_in"`
		CheckOut       string `json:"check_out"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoomTypeID == 0 || body.GuestName == "" || body.GuestsAdults < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_type_id, guest_name and guests_adults are required"})
	}
	checkIn, err := parseStamp(body.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in"})
	}
	checkOut, err := parseStamp(body.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out"})
	}

	b, err := h.Bookings.Create(c.Request().Context(), service.CreateInput{
		CustomerID:     userID,
		RoomTypeID:     body.RoomTypeID,
		GuestName:      body.GuestName,
		GuestsAdults:   body.GuestsAdults,
		GuestsChildren: body.GuestsChildren,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": b})
}

// ConfirmPayment handles POST /v1/bookings/:id/confirm.  Charges the
// booking total, assigns a free room and moves the booking to
// CONFIRMED.  Repeating the call on a CONFIRMED booking returns 200
// without charging again.
func (h *CustomerHandler) ConfirmPayment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Bookings.ConfirmPayment(c.Request().Context(), bookingID, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  Permitted only
// to the owning customer, strictly more than 24 hours before check-in;
// the tiered fee is withheld from the refund.
func (h *CustomerHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
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
		body.Reason = "cancelled by customer"
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), bookingID, userID, body.Reason, false)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// GetBooking handles GET /v1/bookings/:id for the owning customer.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Bookings.Get(c.Request().Context(), bookingID, userID, false)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// ListBookings handles GET /v1/bookings, newest first.
func (h *CustomerHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByCustomer(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
