package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// BookingRepo provides data access to the bookings table.  Status
// transitions are implemented as conditional UPDATE statements guarded
// by the expected source status, so concurrent attempts to move the
// same booking have at most one winner; losers observe zero affected
// rows and receive model.ErrInvalidTransition.
type BookingRepo struct {
	store *Store
}

// NewBookingRepo returns a BookingRepo bound to the given store.
func NewBookingRepo(store *Store) *BookingRepo { return &BookingRepo{store: store} }

const bookingColumns = `id, customer_id, room_type_id, room_id, guest_name,
	guests_adults, guests_children, check_in, check_out, nights, total_cents,
	status, payment_status, payment_ref,
	cancellation_reason, cancellation_fee_cents, cancelled_at,
	checked_in_at, checked_in_by, identity_proof_hash,
	checked_out_at, checked_out_by, extra_charges_cents,
	created_at, updated_at`

func scanBooking(row interface{ Scan(dest ...any) error }) (*model.Booking, error) {
	var b model.Booking
	var roomID, checkedInBy, checkedOutBy sql.NullInt64
	var paymentRef, cancelReason, proofHash sql.NullString
	var feeCents sql.NullInt64
	var cancelledAt, checkedInAt, checkedOutAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.RoomTypeID, &roomID, &b.GuestName,
		&b.GuestsAdults, &b.GuestsChildren, &b.CheckIn, &b.CheckOut, &b.Nights, &b.TotalCents,
		&b.Status, &b.PaymentStatus, &paymentRef,
		&cancelReason, &feeCents, &cancelledAt,
		&checkedInAt, &checkedInBy, &proofHash,
		&checkedOutAt, &checkedOutBy, &b.ExtraChargesCents,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CheckIn = b.CheckIn.UTC()
	b.CheckOut = b.CheckOut.UTC()
	if roomID.Valid {
		v := uint64(roomID.Int64)
		b.RoomID = &v
	}
	if paymentRef.Valid {
		v := paymentRef.String
		b.PaymentRef = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		b.CancellationReason = &v
	}
	if feeCents.Valid {
		v := uint32(feeCents.Int64)
		b.CancellationFeeCents = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time.UTC()
		b.CancelledAt = &v
	}
	if checkedInAt.Valid {
		v := checkedInAt.Time.UTC()
		b.CheckedInAt = &v
	}
	if checkedInBy.Valid {
		v := uint64(checkedInBy.Int64)
		b.CheckedInBy = &v
	}
	if proofHash.Valid {
		v := proofHash.String
		b.IdentityProofHash = &v
	}
	if checkedOutAt.Valid {
		v := checkedOutAt.Time.UTC()
		b.CheckedOutAt = &v
	}
	if checkedOutBy.Valid {
		v := uint64(checkedOutBy.Int64)
		b.CheckedOutBy = &v
	}
	return &b, nil
}

// Get loads a booking by id.  Returns ErrBookingNotFound when no row
// exists.
func (r *BookingRepo) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.store.conn(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Insert persists a new PENDING booking and populates its id.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(customer_id, room_type_id, room_id, guest_name, guests_adults, guests_children,
		 check_in, check_out, nights, total_cents, status, payment_status, extra_charges_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`
	var roomID any
	if b.RoomID != nil {
		roomID = *b.RoomID
	}
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		b.CustomerID, b.RoomTypeID, roomID, b.GuestName, b.GuestsAdults, b.GuestsChildren,
		b.CheckIn.UTC(), b.CheckOut.UTC(), b.Nights, b.TotalCents,
		model.BookingPending, model.PaymentPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.Status = model.BookingPending
	b.PaymentStatus = model.PaymentPending
	return nil
}

// ListByCustomer returns a customer's bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE customer_id = ? ORDER BY created_at DESC`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// transition runs a conditional status update and translates zero
// affected rows into ErrInvalidTransition after confirming the booking
// exists.
func (r *BookingRepo) transition(ctx context.Context, id uint64, res sql.Result, execErr error) error {
	if execErr != nil {
		return execErr
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return model.ErrInvalidTransition
	}
	return nil
}

// MarkConfirmed transitions PENDING -> CONFIRMED, recording the payment
// reference and assigned room.
func (r *BookingRepo) MarkConfirmed(ctx context.Context, id, roomID uint64, paymentRef string) error {
	const q = `UPDATE bookings
		SET status = ?, payment_status = ?, payment_ref = ?, room_id = ?
		WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.BookingConfirmed, model.PaymentPaid, paymentRef, roomID, id, model.BookingPending)
	return r.transition(ctx, id, res, err)
}

// MarkCancelled transitions the booking from the expected source status
// to CANCELLED, recording reason, fee and timestamp.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id uint64, fromStatus, paymentStatus, reason string, feeCents uint32, at time.Time) error {
	const q = `UPDATE bookings
		SET status = ?, payment_status = ?, cancellation_reason = ?, cancellation_fee_cents = ?, cancelled_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.BookingCancelled, paymentStatus, reason, feeCents, at.UTC(), id, fromStatus)
	return r.transition(ctx, id, res, err)
}

// MarkCheckedIn transitions CONFIRMED -> CHECKED_IN, recording the staff
// member and the hashed identity proof.
func (r *BookingRepo) MarkCheckedIn(ctx context.Context, id, staffID uint64, proofHash string, at time.Time) error {
	const q = `UPDATE bookings
		SET status = ?, checked_in_at = ?, checked_in_by = ?, identity_proof_hash = ?
		WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.BookingCheckedIn, at.UTC(), staffID, proofHash, id, model.BookingConfirmed)
	return r.transition(ctx, id, res, err)
}

// MarkCheckedOut transitions CHECKED_IN -> CHECKED_OUT, adding any extra
// charges to the booking total.
func (r *BookingRepo) MarkCheckedOut(ctx context.Context, id, staffID uint64, extraCents uint32, at time.Time) error {
	const q = `UPDATE bookings
		SET status = ?, checked_out_at = ?, checked_out_by = ?,
		    extra_charges_cents = extra_charges_cents + ?, total_cents = total_cents + ?
		WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.BookingCheckedOut, at.UTC(), staffID, extraCents, extraCents, id, model.BookingCheckedIn)
	return r.transition(ctx, id, res, err)
}

// MarkNoShow transitions CONFIRMED -> NO_SHOW.
func (r *BookingRepo) MarkNoShow(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE bookings
		SET status = ?, cancelled_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.BookingNoShow, at.UTC(), id, model.BookingConfirmed)
	return r.transition(ctx, id, res, err)
}

// StalePending returns PENDING bookings created before the cutoff whose
// payment never completed.  The sweeper cancels these to release any
// lingering locks.
func (r *BookingRepo) StalePending(ctx context.Context, cutoff time.Time) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = ? AND created_at < ?`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, model.BookingPending, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
