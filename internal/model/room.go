package model

import "time"

// Room statuses.  AVAILABLE rooms can be locked or allocated; LOCKED is
// the transient hold state during checkout; ALLOCATED means a confirmed
// stay claims the room right now; OCCUPIED means the guest has checked
// in; MAINTENANCE and OUT_OF_SERVICE remove the room from sale.
const (
	RoomStatusAvailable    = "AVAILABLE"
	RoomStatusLocked       = "LOCKED"
	RoomStatusAllocated    = "ALLOCATED"
	RoomStatusOccupied     = "OCCUPIED"
	RoomStatusMaintenance  = "MAINTENANCE"
	RoomStatusOutOfService = "OUT_OF_SERVICE"
)

// Room is one physical room instance of a room type.
//
// The Current* fields are a denormalized cache of the allocation that is
// active right now (check-in <= now < check-out).  The cache exists only
// to answer "what does the floor look like at this moment"; availability
// for arbitrary date windows must always be derived from the allocation
// ledger, never from these fields.
//
// The Lock* fields carry the short-lived reservation lock granted while
// a customer completes payment.  A room has at most one non-expired lock.
type Room struct {
	ID         uint64    // rooms.id
	RoomTypeID uint64    // rooms.room_type_id
	RoomNumber string    // rooms.room_number (unique label, e.g. "0412")
	Floor      string    // rooms.floor
	Status     string    // rooms.status
	Active     bool      // rooms.active (soft-delete flag)
	CreatedAt  time.Time // rooms.created_at
	UpdatedAt  time.Time // rooms.updated_at

	// Floor-plan cache; nil/zero when no allocation is active right now.
	CurrentBookingID *uint64    // rooms.current_booking_id
	CurrentGuestName *string    // rooms.current_guest_name
	CurrentCheckIn   *time.Time // rooms.current_check_in
	CurrentCheckOut  *time.Time // rooms.current_check_out
	AllocatedAt      *time.Time // rooms.allocated_at

	// Reservation lock; nil when the room is not locked.
	LockHolderID  *uint64    // rooms.lock_holder_id
	LockToken     *string    // rooms.lock_token
	LockExpiresAt *time.Time // rooms.lock_expires_at
}

// LockedBy reports whether the room currently carries a lock owned by
// the given holder that has not yet expired at the provided instant.
func (r *Room) LockedBy(holderID uint64, now time.Time) bool {
	if r.Status != RoomStatusLocked || r.LockHolderID == nil || r.LockExpiresAt == nil {
		return false
	}
	return *r.LockHolderID == holderID && now.Before(*r.LockExpiresAt)
}

// AllocationHistory is a past floor-plan cache entry, moved aside when a
// room is deallocated so the instance keeps a record of who occupied it.
type AllocationHistory struct {
	ID            uint64    // room_allocation_history.id
	RoomID        uint64    // room_allocation_history.room_id
	BookingID     uint64    // room_allocation_history.booking_id
	GuestName     string    // room_allocation_history.guest_name
	CheckIn       time.Time // room_allocation_history.check_in
	CheckOut      time.Time // room_allocation_history.check_out
	AllocatedAt   time.Time // room_allocation_history.allocated_at
	DeallocatedAt time.Time // room_allocation_history.deallocated_at
}
