package model

import (
	"errors"
	"time"
)

// Booking statuses.  A booking is created PENDING and moves forward only
// through the transitions declared in validTransitions below.  Bookings
// are never deleted; terminal rows are kept for audit and loyalty
// accounting.
const (
	BookingPending    = "PENDING"
	BookingConfirmed  = "CONFIRMED"
	BookingCheckedIn  = "CHECKED_IN"
	BookingCheckedOut = "CHECKED_OUT"
	BookingCancelled  = "CANCELLED"
	BookingNoShow     = "NO_SHOW"
)

// Payment statuses tracked alongside the booking status.
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// ErrInvalidTransition is returned when a status change is requested
// from a state that does not permit it.  Concurrent movers racing on
// the same booking see this error when they lose the conditional write.
var ErrInvalidTransition = errors.New("invalid booking transition")

// ErrNotCancellable is returned when cancellation is requested outside
// the permitted window or from a non-cancellable state.
var ErrNotCancellable = errors.New("booking cannot be cancelled")

// validTransitions declares the booking state machine.  Cancellation
// from CHECKED_IN exists only for admin overrides and is intentionally
// absent here; the service layer gates that path separately.
var validTransitions = map[string][]string{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCheckedIn, BookingCancelled, BookingNoShow},
	BookingCheckedIn: {BookingCheckedOut},
}

// CanTransition reports whether the state machine permits moving from
// one booking status to another.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking represents one customer reservation.
type Booking struct {
	ID             uint64    // bookings.id
	CustomerID     uint64    // bookings.customer_id
	RoomTypeID     uint64    // bookings.room_type_id
	RoomID         *uint64   // bookings.room_id (assigned physical room, nullable)
	GuestName      string    // bookings.guest_name
	GuestsAdults   int       // bookings.guests_adults
	GuestsChildren int       // bookings.guests_children
	CheckIn        time.Time // bookings.check_in
	CheckOut       time.Time // bookings.check_out
	Nights         int       // bookings.nights
	TotalCents     uint32    // bookings.total_cents
	Status         string    // bookings.status
	PaymentStatus  string    // bookings.payment_status
	PaymentRef     *string   // bookings.payment_ref (gateway transaction id)

	CancellationReason   *string    // bookings.cancellation_reason
	CancellationFeeCents *uint32    // bookings.cancellation_fee_cents
	CancelledAt          *time.Time // bookings.cancelled_at

	CheckedInAt       *time.Time // bookings.checked_in_at
	CheckedInBy       *uint64    // bookings.checked_in_by (staff id)
	IdentityProofHash *string    // bookings.identity_proof_hash
	CheckedOutAt      *time.Time // bookings.checked_out_at
	CheckedOutBy      *uint64    // bookings.checked_out_by (staff id)
	ExtraChargesCents uint32     // bookings.extra_charges_cents

	CreatedAt time.Time // bookings.created_at
	UpdatedAt time.Time // bookings.updated_at
}

// CanBeCancelled reports whether a normal (non-admin) cancellation is
// permitted: the booking must still be PENDING or CONFIRMED and strictly
// more than 24 hours must remain before check-in.  At exactly 24 hours
// the request is refused; only the admin-forced path may proceed.
func (b *Booking) CanBeCancelled(now time.Time) bool {
	if b.Status != BookingPending && b.Status != BookingConfirmed {
		return false
	}
	return b.CheckIn.Sub(now) > 24*time.Hour
}

// CancellationFeeCentsAt computes the tiered cancellation fee owed when
// cancelling at the given instant.  Boundaries are inclusive toward the
// larger fee: exactly 24h before check-in charges 100%, exactly 48h
// charges 50%, exactly 72h charges 25%.  The 100% tier is reachable only
// through admin-forced cancellation because CanBeCancelled already
// refuses the window it covers.
func (b *Booking) CancellationFeeCentsAt(now time.Time) uint32 {
	until := b.CheckIn.Sub(now)
	switch {
	case until <= 24*time.Hour:
		return b.TotalCents
	case until <= 48*time.Hour:
		return b.TotalCents / 2
	case until <= 72*time.Hour:
		return b.TotalCents / 4
	default:
		return 0
	}
}
