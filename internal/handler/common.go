package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWTAuth stores the claim value without asserting its type, so every
// numeric shape the JWT library may produce is accepted here.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseStamp parses a stay boundary from a request value.  Both bare
// dates ("2025-07-01", midnight UTC) and full RFC3339 timestamps are
// accepted.
func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// fail translates service and repository errors into the JSON error
// responses the API contract promises.  Unknown errors become 500
// without leaking internals.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrRoomTypeNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNoAvailability):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no availability for the requested window"})
	case errors.Is(err, repository.ErrRoomUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is not available"})
	case errors.Is(err, repository.ErrLockExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation lock expired"})
	case errors.Is(err, repository.ErrLockMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation lock mismatch"})
	case errors.Is(err, repository.ErrMaintenanceConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "maintenance scheduled for the requested window"})
	case errors.Is(err, repository.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrInconsistentState):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "inconsistent state detected"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting state"})
	case errors.Is(err, model.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid booking transition"})
	case errors.Is(err, model.ErrNotCancellable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking cannot be cancelled"})
	case errors.Is(err, service.ErrInvalidStay):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stay window"})
	case errors.Is(err, service.ErrCapacityExceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest count exceeds room capacity"})
	case errors.Is(err, service.ErrPaymentDeclined):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
