package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// LockHandler serves the reservation-lock flow: a customer locks one
// specific room while completing payment, then either confirms against
// the lock token or releases it.
type LockHandler struct {
	Locks *service.LockManager
}

// NewLockHandler constructs a LockHandler.
func NewLockHandler(locks *service.LockManager) *LockHandler {
	if locks == nil {
		panic("nil lock manager passed to NewLockHandler")
	}
	return &LockHandler{Locks: locks}
}

// LockRoom handles POST /v1/rooms/:id/lock.  On success it returns 201
// with the opaque lock token and its expiry; the token must be
// presented to confirm.
func (h *LockHandler) LockRoom(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	checkIn, err := parseStamp(body.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in"})
	}
	checkOut, err := parseStamp(body.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out"})
	}
	token, expiresAt, err := h.Locks.Lock(c.Request().Context(), roomID, userID, checkIn, checkOut)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"lock_token": token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// UnlockRoom handles DELETE /v1/rooms/:id/lock.  Only the lock holder
// may release; admins use the staff surface for forced release.
func (h *LockHandler) UnlockRoom(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Locks.Unlock(c.Request().Context(), roomID, userID, false); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}

// ConfirmLock handles POST /v1/rooms/:id/confirm.  Converts a valid
// lock into a CONFIRMED booking: the token must match, the lock must be
// unexpired, payment is charged, and the allocation ledger gains the
// claim.  Returns 201 with the confirmed booking.
func (h *LockHandler) ConfirmLock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		LockToken      string `json:"lock_token"`
		GuestName      string `json:"guest_name"`
		GuestsAdults   int    `json:"guests_adults"`
		GuestsChildren int    `json:"guests_children"`
		CheckIn        string `json:"check_in"`
		CheckOut       string `json:"check_out"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.LockToken == "" || body.GuestName == "" || body.GuestsAdults < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lock_token, guest_name and guests_adults are required"})
	}
	checkIn, err := parseStamp(body.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in"})
	}
	checkOut, err := parseStamp(body.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out"})
	}
	b, err := h.Locks.Confirm(c.Request().Context(), service.ConfirmInput{
		RoomID:         roomID,
		CustomerID:     userID,
		Token:          body.LockToken,
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
