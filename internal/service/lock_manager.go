package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/clock"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

// DefaultLockTTL is how long a reservation lock protects a room while
// the customer completes payment.
const DefaultLockTTL = 5 * time.Minute

// LockManager grants short-lived reservation locks on specific rooms
// and converts a valid lock into a confirmed booking.  A room carries
// at most one non-expired lock; competing acquirers lose the
// conditional write and receive ErrRoomUnavailable.
type LockManager struct {
	tx        TxRunner
	rooms     RoomStore
	ledger    LedgerStore
	bookings  BookingStore
	roomTypes RoomTypeStore
	blocks    MaintenanceStore
	gateway   PaymentGateway
	notifier  Notifier
	pricer    Pricer
	clk       clock.Clock
	ttl       time.Duration
}

// NewLockManager wires a LockManager.  A zero ttl falls back to
// DefaultLockTTL.
func NewLockManager(tx TxRunner, rooms RoomStore, ledger LedgerStore, bookings BookingStore,
	roomTypes RoomTypeStore, blocks MaintenanceStore, gateway PaymentGateway,
	notifier Notifier, clk clock.Clock, ttl time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &LockManager{
		tx: tx, rooms: rooms, ledger: ledger, bookings: bookings,
		roomTypes: roomTypes, blocks: blocks, gateway: gateway,
		notifier: notifier, clk: clk, ttl: ttl,
	}
}

// Lock acquires the reservation lock on a room for the given stay
// window.  The window is validated against the maintenance calendar and
// the allocation ledger before the lock is attempted, so a lock grant
// means the room was genuinely sellable at grant time.  Returns the
// opaque lock token and its expiry.
func (m *LockManager) Lock(ctx context.Context, roomID, customerID uint64, checkIn, checkOut time.Time) (string, time.Time, error) {
	if err := validateStay(checkIn, checkOut, m.clk.Now()); err != nil {
		return "", time.Time{}, err
	}
	blocks, err := m.blocks.Overlapping(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return "", time.Time{}, err
	}
	if len(blocks) > 0 {
		return "", time.Time{}, repository.ErrMaintenanceConflict
	}
	taken, err := m.ledger.HasActiveOverlap(ctx, roomID, checkIn, checkOut, 0)
	if err != nil {
		return "", time.Time{}, err
	}
	if taken {
		return "", time.Time{}, repository.ErrNoAvailability
	}
	token, err := utils.NewLockToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := m.clk.Now().Add(m.ttl)
	if err := m.rooms.AcquireLock(ctx, roomID, customerID, token, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Unlock releases a lock held by the customer.  force bypasses the
// holder check for admin overrides.
func (m *LockManager) Unlock(ctx context.Context, roomID, customerID uint64, force bool) error {
	return m.rooms.ReleaseLock(ctx, roomID, customerID, force)
}

// ConfirmInput carries the booking details presented together with the
// lock token.
type ConfirmInput struct {
	RoomID         uint64
	CustomerID     uint64
	Token          string
	GuestName      string
	GuestsAdults   int
	GuestsChildren int
	CheckIn        time.Time
	CheckOut       time.Time
}

// Confirm converts a held lock into a CONFIRMED booking with an ACTIVE
// ledger entry.  The lock must belong to the customer, carry the
// presented token and still be unexpired; an expired lock yields
// ErrLockExpired even before the sweeper has reclaimed it.  Payment is
// charged before the transactional write; if the write then fails the
// charge is refunded.
func (m *LockManager) Confirm(ctx context.Context, in ConfirmInput) (*model.Booking, error) {
	now := m.clk.Now()
	if err := validateStay(in.CheckIn, in.CheckOut, now); err != nil {
		return nil, err
	}

	room, err := m.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Status != model.RoomStatusLocked || room.LockHolderID == nil || *room.LockHolderID != in.CustomerID {
		return nil, repository.ErrLockMismatch
	}
	if room.LockToken == nil || *room.LockToken != in.Token {
		return nil, repository.ErrLockMismatch
	}
	if room.LockExpiresAt == nil || !now.Before(*room.LockExpiresAt) {
		return nil, repository.ErrLockExpired
	}

	taken, err := m.ledger.HasActiveOverlap(ctx, in.RoomID, in.CheckIn, in.CheckOut, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrNoAvailability
	}

	rt, err := m.roomTypes.GetByID(ctx, room.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if in.GuestsAdults+in.GuestsChildren > int(rt.Capacity) {
		return nil, ErrCapacityExceeded
	}

	booking := &model.Booking{
		CustomerID:     in.CustomerID,
		RoomTypeID:     room.RoomTypeID,
		RoomID:         &in.RoomID,
		GuestName:      in.GuestName,
		GuestsAdults:   in.GuestsAdults,
		GuestsChildren: in.GuestsChildren,
		CheckIn:        in.CheckIn.UTC(),
		CheckOut:       in.CheckOut.UTC(),
		Nights:         model.Nights(in.CheckIn, in.CheckOut),
		TotalCents:     m.pricer.Quote(rt, in.CheckIn, in.CheckOut),
	}

	if err := m.bookings.Insert(ctx, booking); err != nil {
		return nil, err
	}

	ref, err := m.gateway.Charge(ctx, booking.ID, booking.TotalCents)
	if err != nil {
		// Payment failed: cancel the fresh PENDING booking and hand the
		// room back to the pool.
		if cErr := m.bookings.MarkCancelled(ctx, booking.ID, model.BookingPending,
			model.PaymentFailed, "payment declined", 0, now); cErr != nil {
			log.Printf("lock-manager: cancel after declined payment failed for booking %d: %v", booking.ID, cErr)
		}
		if rErr := m.rooms.ReleaseLock(ctx, in.RoomID, in.CustomerID, false); rErr != nil {
			log.Printf("lock-manager: lock release after declined payment failed for room %d: %v", in.RoomID, rErr)
		}
		return nil, ErrPaymentDeclined
	}

	err = m.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := m.bookings.MarkConfirmed(ctx, booking.ID, in.RoomID, ref); err != nil {
			return err
		}
		entry := &model.AllocationEntry{
			BookingID:  booking.ID,
			RoomID:     in.RoomID,
			RoomTypeID: room.RoomTypeID,
			GuestName:  in.GuestName,
			CheckIn:    booking.CheckIn,
			CheckOut:   booking.CheckOut,
		}
		if err := m.ledger.UpsertForBooking(ctx, entry); err != nil {
			return err
		}
		if entry.ActiveNow(now) {
			if err := m.rooms.ApplyCache(ctx, in.RoomID, booking.ID, in.GuestName,
				booking.CheckIn, booking.CheckOut, now, model.RoomStatusAllocated); err != nil {
				return err
			}
			return m.rooms.ClearLock(ctx, in.RoomID)
		}
		return m.rooms.ReleaseLock(ctx, in.RoomID, in.CustomerID, false)
	})
	if err != nil {
		if rErr := m.gateway.Refund(ctx, ref, booking.TotalCents); rErr != nil {
			log.Printf("lock-manager: refund after failed confirm of booking %d: %v", booking.ID, rErr)
		}
		return nil, err
	}

	booking.Status = model.BookingConfirmed
	booking.PaymentStatus = model.PaymentPaid
	booking.PaymentRef = &ref

	if m.notifier != nil {
		evt := queue.BookingEvent{
			BookingID:  booking.ID,
			CustomerID: booking.CustomerID,
			RoomTypeID: booking.RoomTypeID,
			RoomID:     in.RoomID,
			RoomNumber: room.RoomNumber,
			GuestName:  booking.GuestName,
			Status:     booking.Status,
			CheckIn:    booking.CheckIn.Format(time.RFC3339),
			CheckOut:   booking.CheckOut.Format(time.RFC3339),
			TotalCents: booking.TotalCents,
			OccurredAt: now.Format(time.RFC3339),
		}
		if err := m.notifier.PublishBookingEvent(ctx, evt); err != nil {
			log.Printf("lock-manager: publish confirm event for booking %d failed: %v", booking.ID, err)
		}
	}
	return booking, nil
}
