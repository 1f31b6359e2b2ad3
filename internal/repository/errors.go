// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios without
// inspecting SQL driver errors. Handlers translate them into HTTP
// responses; the mapping is documented on each value.
package repository

import "errors"

// ErrRoomNotFound is returned when a referenced room does not exist or
// has been deactivated. Handlers translate this into 404.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomTypeNotFound is returned when a referenced room type does not
// exist. Handlers translate this into 404.
var ErrRoomTypeNotFound = errors.New("room type not found")

// ErrBookingNotFound is returned when a referenced booking does not
// exist. Handlers translate this into 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrNoAvailability is returned when no room instance of the requested
// type is free for the full date window. Handlers translate this into
// 409 with reason "no_availability" so clients can suggest other dates.
var ErrNoAvailability = errors.New("no availability for requested dates")

// ErrRoomUnavailable is returned when a lock is requested on a room
// whose status is not AVAILABLE, typically because another customer is
// mid-checkout. Handlers translate this into 409 with reason
// "room_locked" so clients can prompt a retry with a different room
// rather than a blind retry.
var ErrRoomUnavailable = errors.New("room unavailable")

// ErrLockExpired is returned when a confirm is attempted on a lock whose
// TTL has lapsed. The client must re-acquire. Translated into 409.
var ErrLockExpired = errors.New("reservation lock expired")

// ErrLockMismatch is returned when a lock operation is attempted by a
// holder that does not own the current lock. Translated into 409.
var ErrLockMismatch = errors.New("reservation lock held by another customer")

// ErrNotAuthorized is returned when an unlock is requested by someone
// who is neither the lock holder nor an admin. Translated into 403.
var ErrNotAuthorized = errors.New("not authorized")

// ErrMaintenanceConflict is returned when a requested date window
// collides with a maintenance blackout, or when a blackout would
// collide with an active allocation. Translated into 409 with reason
// "maintenance_conflict", distinguishable from plain unavailability.
var ErrMaintenanceConflict = errors.New("maintenance conflict")

// ErrInconsistentState signals that the room cache and the allocation
// ledger disagree. It is surfaced to the operator reconciliation
// report and never silently repaired.
var ErrInconsistentState = errors.New("inconsistent cache and ledger state")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deactivating a room that still
// has an active allocation. Translated into 409.
var ErrConflict = errors.New("conflict")
