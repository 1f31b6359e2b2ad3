package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// AllocationRepo provides data access to the allocations table, the
// authoritative ledger of date-ranged occupancy claims.  Every
// availability decision in the engine is answered from this table;
// the floor-plan cache on rooms is never consulted for overlap checks.
type AllocationRepo struct {
	store *Store
}

// NewAllocationRepo returns an AllocationRepo bound to the given store.
func NewAllocationRepo(store *Store) *AllocationRepo { return &AllocationRepo{store: store} }

const allocationColumns = `id, booking_id, room_id, room_type_id, guest_name,
	check_in, check_out, status, created_at, updated_at`

func scanAllocation(row interface{ Scan(dest ...any) error }) (*model.AllocationEntry, error) {
	var a model.AllocationEntry
	err := row.Scan(&a.ID, &a.BookingID, &a.RoomID, &a.RoomTypeID, &a.GuestName,
		&a.CheckIn, &a.CheckOut, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.CheckIn = a.CheckIn.UTC()
	a.CheckOut = a.CheckOut.UTC()
	return &a, nil
}

// GetByBooking loads the ledger entry for a booking.  Each booking has
// at most one entry; re-allocation updates it in place.  Returns
// sql.ErrNoRows wrapped as nil entry when none exists.
func (r *AllocationRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.AllocationEntry, error) {
	const q = `SELECT ` + allocationColumns + ` FROM allocations WHERE booking_id = ?`
	a, err := scanAllocation(r.store.conn(ctx).QueryRowContext(ctx, q, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// UpsertForBooking writes exactly one ledger entry per booking: it
// creates the entry when none exists and otherwise updates its room,
// dates and guest, supporting re-allocation to a different physical
// room.  The entry is always left ACTIVE.
func (r *AllocationRepo) UpsertForBooking(ctx context.Context, e *model.AllocationEntry) error {
	existing, err := r.GetByBooking(ctx, e.BookingID)
	if err != nil {
		return err
	}
	if existing == nil {
		const ins = `INSERT INTO allocations
			(booking_id, room_id, room_type_id, guest_name, check_in, check_out, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		res, err := r.store.conn(ctx).ExecContext(ctx, ins,
			e.BookingID, e.RoomID, e.RoomTypeID, e.GuestName,
			e.CheckIn.UTC(), e.CheckOut.UTC(), model.AllocationActive)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		e.ID = uint64(id)
		e.Status = model.AllocationActive
		return nil
	}
	const upd = `UPDATE allocations
		SET room_id = ?, room_type_id = ?, guest_name = ?, check_in = ?, check_out = ?, status = ?
		WHERE booking_id = ?`
	_, err = r.store.conn(ctx).ExecContext(ctx, upd,
		e.RoomID, e.RoomTypeID, e.GuestName, e.CheckIn.UTC(), e.CheckOut.UTC(),
		model.AllocationActive, e.BookingID)
	if err != nil {
		return err
	}
	e.ID = existing.ID
	e.Status = model.AllocationActive
	return nil
}

// HasActiveOverlap reports whether any ACTIVE ledger entry for the room
// overlaps the half-open window [checkIn, checkOut).  An entry whose
// check-out equals the requested check-in does not overlap: the
// turnover rule keeps a checkout day sellable as a new check-in day.
// excludeBookingID ignores that booking's own entry so re-allocations
// do not collide with themselves; pass zero to exclude nothing.
func (r *AllocationRepo) HasActiveOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeBookingID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM allocations
		WHERE room_id = ? AND status = ? AND booking_id <> ?
		AND check_in < ? AND check_out > ?`
	var n int
	err := r.store.conn(ctx).QueryRowContext(ctx, q,
		roomID, model.AllocationActive, excludeBookingID,
		checkOut.UTC(), checkIn.UTC()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasActive reports whether the room carries any ACTIVE claim at all,
// regardless of dates.  Direct status changes and room removal are
// rejected while this holds.
func (r *AllocationRepo) HasActive(ctx context.Context, roomID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM allocations WHERE room_id = ? AND status = ?`
	var n int
	if err := r.store.conn(ctx).QueryRowContext(ctx, q, roomID, model.AllocationActive).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasActiveInWindow reports whether an ACTIVE claim occupies any night
// inside the closed day window [start, end].  Maintenance scheduling is
// rejected while this holds.
func (r *AllocationRepo) HasActiveInWindow(ctx context.Context, roomID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM allocations
		WHERE room_id = ? AND status = ? AND check_in <= ? AND check_out > ?`
	var n int
	err := r.store.conn(ctx).QueryRowContext(ctx, q,
		roomID, model.AllocationActive, end.UTC(), start.UTC()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetStatusByBooking moves a booking's ledger entry to the given status
// (CANCELLED or COMPLETED).  Entries are never deleted; the ledger is
// the audit trail.
func (r *AllocationRepo) SetStatusByBooking(ctx context.Context, bookingID uint64, status string) error {
	const q = `UPDATE allocations SET status = ? WHERE booking_id = ?`
	_, err := r.store.conn(ctx).ExecContext(ctx, q, status, bookingID)
	return err
}

// ActiveByRoom returns the ACTIVE entries for a room ordered by
// check-in.  Used by availability listings that re-derive status from
// the ledger for a window instead of trusting the cache.
func (r *AllocationRepo) ActiveByRoom(ctx context.Context, roomID uint64) ([]*model.AllocationEntry, error) {
	const q = `SELECT ` + allocationColumns + ` FROM allocations
		WHERE room_id = ? AND status = ? ORDER BY check_in`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, roomID, model.AllocationActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.AllocationEntry
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Inconsistency is one detected disagreement between the floor-plan
// cache and the allocation ledger.  These are reported to operators,
// never auto-corrected: guessing which side is authoritative could mask
// data loss.
type Inconsistency struct {
	RoomID    uint64 `json:"room_id"`
	BookingID uint64 `json:"booking_id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
}

// ReconciliationReport scans for rooms whose cache points at a booking
// with no ACTIVE ledger entry covering the present, and for ACTIVE
// ledger entries covering the present whose room cache points
// elsewhere.
func (r *AllocationRepo) ReconciliationReport(ctx context.Context, now time.Time) ([]Inconsistency, error) {
	nowUTC := now.UTC()
	var out []Inconsistency

	// Cache entries with no backing ledger claim.
	const orphanCache = `SELECT rm.id, rm.current_booking_id
		FROM rooms rm
		WHERE rm.current_booking_id IS NOT NULL
		AND NOT EXISTS (
			SELECT 1 FROM allocations a
			WHERE a.booking_id = rm.current_booking_id AND a.room_id = rm.id
			AND a.status = ? AND a.check_in <= ? AND a.check_out > ?
		)`
	rows, err := r.store.conn(ctx).QueryContext(ctx, orphanCache, model.AllocationActive, nowUTC, nowUTC)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var inc Inconsistency
		if err := rows.Scan(&inc.RoomID, &inc.BookingID); err != nil {
			rows.Close()
			return nil, err
		}
		inc.Kind = "cache_without_ledger"
		inc.Detail = "room cache references a booking with no active ledger claim for the current instant"
		out = append(out, inc)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	// Ledger claims active now that the cache does not reflect.
	const missingCache = `SELECT a.room_id, a.booking_id
		FROM allocations a
		JOIN rooms rm ON rm.id = a.room_id
		WHERE a.status = ? AND a.check_in <= ? AND a.check_out > ?
		AND (rm.current_booking_id IS NULL OR rm.current_booking_id <> a.booking_id)`
	rows, err = r.store.conn(ctx).QueryContext(ctx, missingCache, model.AllocationActive, nowUTC, nowUTC)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var inc Inconsistency
		if err := rows.Scan(&inc.RoomID, &inc.BookingID); err != nil {
			return nil, err
		}
		inc.Kind = "ledger_without_cache"
		inc.Detail = "active ledger claim covers the current instant but the room cache does not reflect it"
		out = append(out, inc)
	}
	return out, rows.Err()
}
