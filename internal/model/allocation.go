package model

import "time"

// Allocation ledger statuses.  ACTIVE claims are in force; CANCELLED and
// COMPLETED rows remain for audit but no longer block availability.
const (
	AllocationActive    = "ACTIVE"
	AllocationCancelled = "CANCELLED"
	AllocationCompleted = "COMPLETED"
)

// AllocationEntry is the authoritative occupancy claim: which booking
// holds which physical room for which date window.  The single
// correctness invariant of the engine is that no two ACTIVE entries for
// the same room have overlapping [CheckIn, CheckOut) windows.
type AllocationEntry struct {
	ID         uint64    // allocations.id
	BookingID  uint64    // allocations.booking_id
	RoomID     uint64    // allocations.room_id
	RoomTypeID uint64    // allocations.room_type_id
	GuestName  string    // allocations.guest_name
	CheckIn    time.Time // allocations.check_in
	CheckOut   time.Time // allocations.check_out
	Status     string    // allocations.status
	CreatedAt  time.Time // allocations.created_at
	UpdatedAt  time.Time // allocations.updated_at
}

// StaysOverlap implements the half-open interval test used for ledger
// claims: [aStart, aEnd) and [bStart, bEnd) overlap when
// aStart < bEnd AND aEnd > bStart.  A checkout day therefore remains
// free for a new check-in on the same room (the hotel turnover rule).
func StaysOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// MaintenanceOverlaps implements the closed-interval test used for
// maintenance blackouts: the requested window [reqStart, reqEnd]
// conflicts with a blackout [mStart, mEnd] when reqStart <= mEnd AND
// reqEnd >= mStart.  Maintenance blocks even on boundary days.
func MaintenanceOverlaps(reqStart, reqEnd, mStart, mEnd time.Time) bool {
	return !reqStart.After(mEnd) && !reqEnd.Before(mStart)
}

// Nights derives the billable night count of a stay as the number of
// started 24-hour periods between check-in and check-out.  Callers must
// have validated checkOut > checkIn first.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}

// ActiveNow reports whether the entry's stay window covers the given
// instant, i.e. check-in <= now < check-out.  Only entries active now
// are reflected in the room's floor-plan cache.
func (a *AllocationEntry) ActiveNow(now time.Time) bool {
	return !now.Before(a.CheckIn) && now.Before(a.CheckOut)
}
