package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/clock"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

// DefaultPendingTimeout is how long a PENDING booking may sit unpaid
// before the sweeper cancels it.
const DefaultPendingTimeout = 15 * time.Minute

// ErrInvalidStay is returned when the requested window is malformed:
// check-out not after check-in, or check-in in the past.
var ErrInvalidStay = errors.New("invalid stay window")

// ErrCapacityExceeded is returned when the guest count exceeds the room
// type's capacity.
var ErrCapacityExceeded = errors.New("guest count exceeds room capacity")

func validateStay(checkIn, checkOut, now time.Time) error {
	if !checkOut.After(checkIn) {
		return ErrInvalidStay
	}
	// Same-day booking is allowed; anything before today is not.
	if checkIn.Before(now.Truncate(24 * time.Hour)) {
		return ErrInvalidStay
	}
	return nil
}

// BookingService drives the booking lifecycle: creation, payment
// confirmation with room assignment, cancellation with tiered fees,
// front-desk check-in/check-out, no-show handling and the admin
// override paths.  All multi-table mutations run inside a transaction
// and all status changes are conditional writes, so concurrent callers
// racing on the same booking or room have at most one winner.
type BookingService struct {
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

	pendingTimeout time.Duration
}

// NewBookingService wires a BookingService.  A zero pendingTimeout
// falls back to DefaultPendingTimeout.
func NewBookingService(tx TxRunner, rooms RoomStore, ledger LedgerStore, bookings BookingStore,
	roomTypes RoomTypeStore, blocks MaintenanceStore, gateway PaymentGateway,
	notifier Notifier, clk clock.Clock, pendingTimeout time.Duration) *BookingService {
	if pendingTimeout <= 0 {
		pendingTimeout = DefaultPendingTimeout
	}
	return &BookingService{
		tx: tx, rooms: rooms, ledger: ledger, bookings: bookings,
		roomTypes: roomTypes, blocks: blocks, gateway: gateway,
		notifier: notifier, clk: clk, pendingTimeout: pendingTimeout,
	}
}

// CreateInput carries a type-level booking request.  No physical room
// is assigned yet; assignment happens when payment confirms.
type CreateInput struct {
	CustomerID     uint64
	RoomTypeID     uint64
	GuestName      string
	GuestsAdults   int
	GuestsChildren int
	CheckIn        time.Time
	CheckOut       time.Time
}

// Create records a PENDING booking for a room type after verifying the
// window is valid, the guest count fits and at least one physical room
// of the type is free for the window.  The availability check is
// advisory; the authoritative claim happens at ConfirmPayment.
func (s *BookingService) Create(ctx context.Context, in CreateInput) (*model.Booking, error) {
	now := s.clk.Now()
	if err := validateStay(in.CheckIn, in.CheckOut, now); err != nil {
		return nil, err
	}
	rt, err := s.roomTypes.GetByID(ctx, in.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if in.GuestsAdults+in.GuestsChildren > int(rt.Capacity) {
		return nil, ErrCapacityExceeded
	}
	free, err := s.CountFree(ctx, in.RoomTypeID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if free == 0 {
		return nil, repository.ErrNoAvailability
	}

	b := &model.Booking{
		CustomerID:     in.CustomerID,
		RoomTypeID:     in.RoomTypeID,
		GuestName:      in.GuestName,
		GuestsAdults:   in.GuestsAdults,
		GuestsChildren: in.GuestsChildren,
		CheckIn:        in.CheckIn.UTC(),
		CheckOut:       in.CheckOut.UTC(),
		Nights:         model.Nights(in.CheckIn, in.CheckOut),
		TotalCents:     s.pricer.Quote(rt, in.CheckIn, in.CheckOut),
	}
	if err := s.bookings.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ConfirmPayment charges the booking total, assigns a free physical
// room and moves the booking to CONFIRMED with an ACTIVE ledger entry.
// Calling it on an already CONFIRMED booking returns the booking
// unchanged without charging again.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID, customerID uint64) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, repository.ErrNotAuthorized
	}
	if b.Status == model.BookingConfirmed {
		return b, nil
	}
	if b.Status != model.BookingPending {
		return nil, model.ErrInvalidTransition
	}

	now := s.clk.Now()
	room, err := s.FindFreeRoom(ctx, b.RoomTypeID, b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, err
	}

	ref, err := s.gateway.Charge(ctx, b.ID, b.TotalCents)
	if err != nil {
		return nil, ErrPaymentDeclined
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		// The free-room scan above ran outside this transaction, so a
		// concurrent confirm may have claimed the room since.  Take the
		// room's row lock and re-check the ledger before writing.
		if err := s.rooms.LockRow(ctx, room.ID); err != nil {
			return err
		}
		taken, err := s.ledger.HasActiveOverlap(ctx, room.ID, b.CheckIn, b.CheckOut, b.ID)
		if err != nil {
			return err
		}
		if taken {
			return repository.ErrNoAvailability
		}
		if err := s.bookings.MarkConfirmed(ctx, b.ID, room.ID, ref); err != nil {
			return err
		}
		entry := &model.AllocationEntry{
			BookingID:  b.ID,
			RoomID:     room.ID,
			RoomTypeID: b.RoomTypeID,
			GuestName:  b.GuestName,
			CheckIn:    b.CheckIn,
			CheckOut:   b.CheckOut,
		}
		if err := s.ledger.UpsertForBooking(ctx, entry); err != nil {
			return err
		}
		if entry.ActiveNow(now) {
			return s.rooms.ApplyCache(ctx, room.ID, b.ID, b.GuestName,
				b.CheckIn, b.CheckOut, now, model.RoomStatusAllocated)
		}
		return nil
	})
	if err != nil {
		if rErr := s.gateway.Refund(ctx, ref, b.TotalCents); rErr != nil {
			log.Printf("booking: refund after failed confirm of booking %d: %v", b.ID, rErr)
		}
		return nil, err
	}

	b.Status = model.BookingConfirmed
	b.PaymentStatus = model.PaymentPaid
	b.PaymentRef = &ref
	b.RoomID = &room.ID
	s.publish(ctx, b, room.RoomNumber, now)
	return b, nil
}

// Cancel cancels a booking.  Non-forced cancellation requires the
// caller to own the booking and strictly more than 24 hours before
// check-in; inside that window only force (admin) succeeds.  The tiered
// fee is withheld from the refund when payment had completed.
func (s *BookingService) Cancel(ctx context.Context, bookingID, callerID uint64, reason string, force bool) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !force {
		if b.CustomerID != callerID {
			return nil, repository.ErrNotAuthorized
		}
		if !b.CanBeCancelled(s.clk.Now()) {
			return nil, model.ErrNotCancellable
		}
	} else {
		// The forced path additionally reaches CHECKED_IN bookings,
		// outside the normal transition table.
		switch b.Status {
		case model.BookingPending, model.BookingConfirmed, model.BookingCheckedIn:
		default:
			return nil, model.ErrInvalidTransition
		}
	}

	now := s.clk.Now()
	fee := b.CancellationFeeCentsAt(now)
	paymentStatus := b.PaymentStatus
	refund := uint32(0)
	if b.PaymentStatus == model.PaymentPaid && fee < b.TotalCents {
		refund = b.TotalCents - fee
		paymentStatus = model.PaymentRefunded
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.MarkCancelled(ctx, b.ID, b.Status, paymentStatus, reason, fee, now); err != nil {
			return err
		}
		if err := s.ledger.SetStatusByBooking(ctx, b.ID, model.AllocationCancelled); err != nil {
			return err
		}
		if b.RoomID != nil {
			return s.rooms.ClearCacheIfBooking(ctx, *b.RoomID, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refund > 0 && b.PaymentRef != nil {
		if err := s.gateway.Refund(ctx, *b.PaymentRef, refund); err != nil {
			log.Printf("booking: refund of %d cents for cancelled booking %d failed: %v", refund, b.ID, err)
		}
	}

	b.Status = model.BookingCancelled
	b.PaymentStatus = paymentStatus
	b.CancellationReason = &reason
	b.CancellationFeeCents = &fee
	b.CancelledAt = &now
	s.publish(ctx, b, "", now)
	return b, nil
}

// CheckIn records guest arrival: the booking moves to CHECKED_IN, the
// presented identity document is stored as a hash only, and the room
// moves to OCCUPIED.  Arrival before the check-in date is refused.
func (s *BookingService) CheckIn(ctx context.Context, bookingID, staffID uint64, identityDocument string) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingConfirmed {
		return nil, model.ErrInvalidTransition
	}
	if b.RoomID == nil {
		return nil, repository.ErrInconsistentState
	}
	now := s.clk.Now()
	if now.Before(b.CheckIn.Truncate(24 * time.Hour)) {
		return nil, repository.ErrConflict
	}
	proofHash, err := utils.HashIdentityProof(identityDocument)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.MarkCheckedIn(ctx, b.ID, staffID, proofHash, now); err != nil {
			return err
		}
		return s.rooms.ApplyCache(ctx, *b.RoomID, b.ID, b.GuestName,
			b.CheckIn, b.CheckOut, now, model.RoomStatusOccupied)
	})
	if err != nil {
		return nil, err
	}

	b.Status = model.BookingCheckedIn
	b.CheckedInAt = &now
	b.CheckedInBy = &staffID
	s.publish(ctx, b, "", now)
	return b, nil
}

// CheckOut records guest departure: extra charges are added to the
// total and charged, the booking moves to CHECKED_OUT, the ledger entry
// completes, and the room's cache entry is moved into history so the
// room returns to AVAILABLE.
func (s *BookingService) CheckOut(ctx context.Context, bookingID, staffID uint64, extraCents uint32) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingCheckedIn {
		return nil, model.ErrInvalidTransition
	}
	if b.RoomID == nil {
		return nil, repository.ErrInconsistentState
	}
	now := s.clk.Now()

	var extraRef string
	if extraCents > 0 {
		ref, err := s.gateway.Charge(ctx, b.ID, extraCents)
		if err != nil {
			return nil, ErrPaymentDeclined
		}
		extraRef = ref
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.MarkCheckedOut(ctx, b.ID, staffID, extraCents, now); err != nil {
			return err
		}
		if err := s.ledger.SetStatusByBooking(ctx, b.ID, model.AllocationCompleted); err != nil {
			return err
		}
		return s.rooms.MoveCacheToHistory(ctx, *b.RoomID, now)
	})
	if err != nil {
		if extraRef != "" {
			if rErr := s.gateway.Refund(ctx, extraRef, extraCents); rErr != nil {
				log.Printf("booking: refund of extra charges for booking %d failed: %v", b.ID, rErr)
			}
		}
		return nil, err
	}

	b.Status = model.BookingCheckedOut
	b.CheckedOutAt = &now
	b.CheckedOutBy = &staffID
	b.ExtraChargesCents += extraCents
	b.TotalCents += extraCents
	s.publish(ctx, b, "", now)
	return b, nil
}

// MarkNoShow moves a CONFIRMED booking whose check-in day has passed
// without arrival to NO_SHOW.  The full amount is forfeited and the
// room's claim is cancelled so it can be resold.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingConfirmed {
		return nil, model.ErrInvalidTransition
	}
	now := s.clk.Now()
	if now.Before(b.CheckIn) {
		return nil, repository.ErrConflict
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.MarkNoShow(ctx, b.ID, now); err != nil {
			return err
		}
		if err := s.ledger.SetStatusByBooking(ctx, b.ID, model.AllocationCancelled); err != nil {
			return err
		}
		if b.RoomID != nil {
			return s.rooms.ClearCacheIfBooking(ctx, *b.RoomID, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.Status = model.BookingNoShow
	s.publish(ctx, b, "", now)
	return b, nil
}

// ExpirePending cancels PENDING bookings whose payment window has
// elapsed.  The sweeper calls this on every pass.  Returns the number
// of bookings cancelled.
func (s *BookingService) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.bookings.StalePending(ctx, now.Add(-s.pendingTimeout))
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, b := range stale {
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := s.bookings.MarkCancelled(ctx, b.ID, model.BookingPending,
				b.PaymentStatus, "payment window elapsed", 0, now); err != nil {
				return err
			}
			return s.ledger.SetStatusByBooking(ctx, b.ID, model.AllocationCancelled)
		})
		if err != nil {
			if errors.Is(err, model.ErrInvalidTransition) {
				// Lost the race to a concurrent confirm or cancel.
				continue
			}
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

// Get returns a booking visible to the caller.  Staff pass staff=true
// to bypass the ownership check.
func (s *BookingService) Get(ctx context.Context, bookingID, callerID uint64, staff bool) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !staff && b.CustomerID != callerID {
		return nil, repository.ErrNotAuthorized
	}
	return b, nil
}

// RoomTypes returns the active room types for the public browse surface.
func (s *BookingService) RoomTypes(ctx context.Context) ([]*model.RoomType, error) {
	return s.roomTypes.ListActive(ctx)
}

// ListByCustomer returns the customer's bookings, newest first.
func (s *BookingService) ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Booking, error) {
	return s.bookings.ListByCustomer(ctx, customerID)
}

func (s *BookingService) publish(ctx context.Context, b *model.Booking, roomNumber string, now time.Time) {
	if s.notifier == nil {
		return
	}
	evt := queue.BookingEvent{
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		RoomTypeID: b.RoomTypeID,
		RoomNumber: roomNumber,
		GuestName:  b.GuestName,
		Status:     b.Status,
		CheckIn:    b.CheckIn.Format(time.RFC3339),
		CheckOut:   b.CheckOut.Format(time.RFC3339),
		TotalCents: b.TotalCents,
		OccurredAt: now.Format(time.RFC3339),
	}
	if b.RoomID != nil {
		evt.RoomID = *b.RoomID
	}
	if err := s.notifier.PublishBookingEvent(ctx, evt); err != nil {
		log.Printf("booking: publish %s event for booking %d failed: %v", b.Status, b.ID, err)
	}
}
