package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// RoomRepo provides data access to the rooms table, including the
// denormalized floor-plan cache columns and the reservation-lock
// columns.  Lock acquisition and release are implemented as single
// conditional UPDATE statements so that two concurrent requests racing
// on the same room cannot both win: the database applies the
// read-then-write atomically per row.
type RoomRepo struct {
	store *Store
}

// NewRoomRepo returns a RoomRepo bound to the given store.
func NewRoomRepo(store *Store) *RoomRepo { return &RoomRepo{store: store} }

const roomColumns = `id, room_type_id, room_number, floor, status, active,
	current_booking_id, current_guest_name, current_check_in, current_check_out, allocated_at,
	lock_holder_id, lock_token, lock_expires_at, created_at, updated_at`

func scanRoom(row interface{ Scan(dest ...any) error }) (*model.Room, error) {
	var r model.Room
	var curBooking, lockHolder sql.NullInt64
	var curGuest, lockToken sql.NullString
	var curIn, curOut, allocAt, lockExp sql.NullTime
	err := row.Scan(
		&r.ID, &r.RoomTypeID, &r.RoomNumber, &r.Floor, &r.Status, &r.Active,
		&curBooking, &curGuest, &curIn, &curOut, &allocAt,
		&lockHolder, &lockToken, &lockExp, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if curBooking.Valid {
		v := uint64(curBooking.Int64)
		r.CurrentBookingID = &v
	}
	if curGuest.Valid {
		v := curGuest.String
		r.CurrentGuestName = &v
	}
	if curIn.Valid {
		v := curIn.Time.UTC()
		r.CurrentCheckIn = &v
	}
	if curOut.Valid {
		v := curOut.Time.UTC()
		r.CurrentCheckOut = &v
	}
	if allocAt.Valid {
		v := allocAt.Time.UTC()
		r.AllocatedAt = &v
	}
	if lockHolder.Valid {
		v := uint64(lockHolder.Int64)
		r.LockHolderID = &v
	}
	if lockToken.Valid {
		v := lockToken.String
		r.LockToken = &v
	}
	if lockExp.Valid {
		v := lockExp.Time.UTC()
		r.LockExpiresAt = &v
	}
	return &r, nil
}

// GetByID loads a single room. It returns ErrRoomNotFound when no row
// exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	room, err := scanRoom(r.store.conn(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// ActiveByType returns all active room instances of a type ordered by
// room number.  Availability scans iterate this list.
func (r *RoomRepo) ActiveByType(ctx context.Context, roomTypeID uint64) ([]*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms
		WHERE room_type_id = ? AND active = 1 ORDER BY room_number`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, roomTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// List returns every active room, ordered by floor then number.  This
// backs the floor-plan view, which reads the cache columns only.
func (r *RoomRepo) List(ctx context.Context) ([]*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE active = 1 ORDER BY floor, room_number`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// CreateBulk inserts multiple rooms in one statement.  Used by the bulk
// provisioning endpoint.  Passing an empty slice has no effect.
func (r *RoomRepo) CreateBulk(ctx context.Context, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	query := `INSERT INTO rooms (room_type_id, room_number, floor, status, active) VALUES `
	args := make([]any, 0, len(rooms)*5)
	for i, rm := range rooms {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, rm.RoomTypeID, rm.RoomNumber, rm.Floor, rm.Status, rm.Active)
	}
	_, err := r.store.conn(ctx).ExecContext(ctx, query, args...)
	return err
}

// AcquireLock grants the reservation lock on an AVAILABLE room in a
// single conditional write.  When zero rows are affected the room is
// either missing or not currently lockable; the caller receives
// ErrRoomNotFound or ErrRoomUnavailable accordingly.
func (r *RoomRepo) AcquireLock(ctx context.Context, roomID, holderID uint64, token string, expiresAt time.Time) error {
	const q = `UPDATE rooms
		SET status = ?, lock_holder_id = ?, lock_token = ?, lock_expires_at = ?
		WHERE id = ? AND active = 1 AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.RoomStatusLocked, holderID, token, expiresAt.UTC(), roomID, model.RoomStatusAvailable)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, roomID); err != nil {
			return err
		}
		return ErrRoomUnavailable
	}
	return nil
}

// ReleaseLock clears the lock and restores the room to AVAILABLE.  When
// force is false the statement only matches rows locked by holderID, so
// a mismatched holder affects zero rows and gets ErrNotAuthorized.
// Admins and the sweeper release with force = true.
func (r *RoomRepo) ReleaseLock(ctx context.Context, roomID, holderID uint64, force bool) error {
	q := `UPDATE rooms
		SET status = ?, lock_holder_id = NULL, lock_token = NULL, lock_expires_at = NULL
		WHERE id = ? AND status = ?`
	args := []any{model.RoomStatusAvailable, roomID, model.RoomStatusLocked}
	if !force {
		q += ` AND lock_holder_id = ?`
		args = append(args, holderID)
	}
	res, err := r.store.conn(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		room, err := r.GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		if room.Status != model.RoomStatusLocked {
			return ErrConflict
		}
		return ErrNotAuthorized
	}
	return nil
}

// ClearLock removes lock columns without touching the status.  Used when
// a lock is converted into a confirmed booking and the room status is
// set by the allocation cache update instead.
func (r *RoomRepo) ClearLock(ctx context.Context, roomID uint64) error {
	const q = `UPDATE rooms
		SET lock_holder_id = NULL, lock_token = NULL, lock_expires_at = NULL
		WHERE id = ?`
	_, err := r.store.conn(ctx).ExecContext(ctx, q, roomID)
	return err
}

// ReclaimExpiredLocks resets every room whose lock expired before now
// back to AVAILABLE in one batch statement and returns the number of
// reclaimed locks.  This is the only path that clears a lock without
// holder authorization; an expired lock has no rightful owner.
func (r *RoomRepo) ReclaimExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE rooms
		SET status = ?, lock_holder_id = NULL, lock_token = NULL, lock_expires_at = NULL
		WHERE status = ? AND lock_expires_at < ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.RoomStatusAvailable, model.RoomStatusLocked, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetStatus updates a room's status unconditionally.  The service layer
// is responsible for rejecting the change while an active allocation
// exists.
func (r *RoomRepo) SetStatus(ctx context.Context, roomID uint64, status string) error {
	const q = `UPDATE rooms SET status = ? WHERE id = ? AND active = 1`
	res, err := r.store.conn(ctx).ExecContext(ctx, q, status, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// UpdateStatusIf transitions a room's status only when it currently has
// the expected value, preserving "at most one writer wins" semantics.
func (r *RoomRepo) UpdateStatusIf(ctx context.Context, roomID uint64, from, to string) error {
	const q = `UPDATE rooms SET status = ? WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q, to, roomID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ApplyCache writes the floor-plan cache for a stay that is active right
// now and moves the room into the given status (ALLOCATED or OCCUPIED).
// Future-dated allocations must not call this; the cache only mirrors
// the present.
func (r *RoomRepo) ApplyCache(ctx context.Context, roomID, bookingID uint64, guestName string, checkIn, checkOut, now time.Time, status string) error {
	const q = `UPDATE rooms
		SET status = ?, current_booking_id = ?, current_guest_name = ?,
		    current_check_in = ?, current_check_out = ?, allocated_at = ?
		WHERE id = ?`
	_, err := r.store.conn(ctx).ExecContext(ctx, q,
		status, bookingID, guestName, checkIn.UTC(), checkOut.UTC(), now.UTC(), roomID)
	return err
}

// MoveCacheToHistory copies the room's current cache entry into the
// allocation history (stamped with the deallocation time), clears the
// cache and restores the room to AVAILABLE.  Rooms with an empty cache
// are left untouched.  Callers pair this with completing the ledger row
// inside the same transaction.
func (r *RoomRepo) MoveCacheToHistory(ctx context.Context, roomID uint64, now time.Time) error {
	const ins = `INSERT INTO room_allocation_history
		(room_id, booking_id, guest_name, check_in, check_out, allocated_at, deallocated_at)
		SELECT id, current_booking_id, current_guest_name, current_check_in, current_check_out,
		       allocated_at, ?
		FROM rooms WHERE id = ? AND current_booking_id IS NOT NULL`
	if _, err := r.store.conn(ctx).ExecContext(ctx, ins, now.UTC(), roomID); err != nil {
		return err
	}
	const clr = `UPDATE rooms
		SET status = ?, current_booking_id = NULL, current_guest_name = NULL,
		    current_check_in = NULL, current_check_out = NULL, allocated_at = NULL
		WHERE id = ?`
	_, err := r.store.conn(ctx).ExecContext(ctx, clr, model.RoomStatusAvailable, roomID)
	return err
}

// LockRow takes the room's row lock for the rest of the enclosing
// transaction.  Allocation writers take it before re-checking the
// ledger so two transactions cannot both pass the overlap check and
// then both insert a claim.
func (r *RoomRepo) LockRow(ctx context.Context, roomID uint64) error {
	const q = `SELECT id FROM rooms WHERE id = ? FOR UPDATE`
	var id uint64
	if err := r.store.conn(ctx).QueryRowContext(ctx, q, roomID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}

// ClearCacheIfBooking frees the cache only when it points at the given
// booking, leaving the status AVAILABLE.  Cancellation uses this so a
// re-allocated room's cache is not clobbered by a stale booking.
func (r *RoomRepo) ClearCacheIfBooking(ctx context.Context, roomID, bookingID uint64) error {
	const q = `UPDATE rooms
		SET status = ?, current_booking_id = NULL, current_guest_name = NULL,
		    current_check_in = NULL, current_check_out = NULL, allocated_at = NULL
		WHERE id = ? AND current_booking_id = ?`
	_, err := r.store.conn(ctx).ExecContext(ctx, q, model.RoomStatusAvailable, roomID, bookingID)
	return err
}

// HistoryByRoom lists past cache entries for a room, newest first.
func (r *RoomRepo) HistoryByRoom(ctx context.Context, roomID uint64) ([]model.AllocationHistory, error) {
	const q = `SELECT id, room_id, booking_id, guest_name, check_in, check_out,
		allocated_at, deallocated_at
		FROM room_allocation_history WHERE room_id = ? ORDER BY deallocated_at DESC`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AllocationHistory
	for rows.Next() {
		var h model.AllocationHistory
		if err := rows.Scan(&h.ID, &h.RoomID, &h.BookingID, &h.GuestName,
			&h.CheckIn, &h.CheckOut, &h.AllocatedAt, &h.DeallocatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Remove deletes a room that has no allocation history and deactivates
// one that does.  Rooms with an active allocation cannot be removed.
func (r *RoomRepo) Remove(ctx context.Context, roomID uint64) error {
	return r.store.WithTx(ctx, func(ctx context.Context) error {
		var n int
		const hist = `SELECT COUNT(*) FROM room_allocation_history WHERE room_id = ?`
		if err := r.store.conn(ctx).QueryRowContext(ctx, hist, roomID).Scan(&n); err != nil {
			return err
		}
		var ledger int
		const led = `SELECT COUNT(*) FROM allocations WHERE room_id = ?`
		if err := r.store.conn(ctx).QueryRowContext(ctx, led, roomID).Scan(&ledger); err != nil {
			return err
		}
		var active int
		const act = `SELECT COUNT(*) FROM allocations WHERE room_id = ? AND status = ?`
		if err := r.store.conn(ctx).QueryRowContext(ctx, act, roomID, model.AllocationActive).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return ErrConflict
		}
		if n > 0 || ledger > 0 {
			const deact = `UPDATE rooms SET active = 0 WHERE id = ?`
			res, err := r.store.conn(ctx).ExecContext(ctx, deact, roomID)
			if err != nil {
				return err
			}
			if cnt, _ := res.RowsAffected(); cnt == 0 {
				return ErrRoomNotFound
			}
			return nil
		}
		const del = `DELETE FROM rooms WHERE id = ?`
		res, err := r.store.conn(ctx).ExecContext(ctx, del, roomID)
		if err != nil {
			return err
		}
		if cnt, _ := res.RowsAffected(); cnt == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}
