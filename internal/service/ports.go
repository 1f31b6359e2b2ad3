// Package service implements the booking engine: availability checks,
// the reservation lock manager, the booking lifecycle and the
// background reclamation sweeper.  Services speak to storage through
// the narrow interfaces below so tests can substitute in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// TxRunner runs a function inside a database transaction.  Nested calls
// join the ambient transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoomStore is the room-table surface the services need.
type RoomStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	LockRow(ctx context.Context, roomID uint64) error
	ActiveByType(ctx context.Context, roomTypeID uint64) ([]*model.Room, error)
	List(ctx context.Context) ([]*model.Room, error)
	CreateBulk(ctx context.Context, rooms []model.Room) error
	AcquireLock(ctx context.Context, roomID, holderID uint64, token string, expiresAt time.Time) error
	ReleaseLock(ctx context.Context, roomID, holderID uint64, force bool) error
	ClearLock(ctx context.Context, roomID uint64) error
	ReclaimExpiredLocks(ctx context.Context, now time.Time) (int64, error)
	SetStatus(ctx context.Context, roomID uint64, status string) error
	UpdateStatusIf(ctx context.Context, roomID uint64, from, to string) error
	ApplyCache(ctx context.Context, roomID, bookingID uint64, guestName string, checkIn, checkOut, now time.Time, status string) error
	MoveCacheToHistory(ctx context.Context, roomID uint64, now time.Time) error
	ClearCacheIfBooking(ctx context.Context, roomID, bookingID uint64) error
	HistoryByRoom(ctx context.Context, roomID uint64) ([]model.AllocationHistory, error)
	Remove(ctx context.Context, roomID uint64) error
}

// LedgerStore is the allocation-ledger surface.  Every availability
// decision goes through here.
type LedgerStore interface {
	GetByBooking(ctx context.Context, bookingID uint64) (*model.AllocationEntry, error)
	UpsertForBooking(ctx context.Context, e *model.AllocationEntry) error
	HasActiveOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeBookingID uint64) (bool, error)
	HasActive(ctx context.Context, roomID uint64) (bool, error)
	HasActiveInWindow(ctx context.Context, roomID uint64, start, end time.Time) (bool, error)
	SetStatusByBooking(ctx context.Context, bookingID uint64, status string) error
	ActiveByRoom(ctx context.Context, roomID uint64) ([]*model.AllocationEntry, error)
	ReconciliationReport(ctx context.Context, now time.Time) ([]repository.Inconsistency, error)
}

// BookingStore is the booking-table surface.
type BookingStore interface {
	Get(ctx context.Context, id uint64) (*model.Booking, error)
	Insert(ctx context.Context, b *model.Booking) error
	ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Booking, error)
	MarkConfirmed(ctx context.Context, id, roomID uint64, paymentRef string) error
	MarkCancelled(ctx context.Context, id uint64, fromStatus, paymentStatus, reason string, feeCents uint32, at time.Time) error
	MarkCheckedIn(ctx context.Context, id, staffID uint64, proofHash string, at time.Time) error
	MarkCheckedOut(ctx context.Context, id, staffID uint64, extraCents uint32, at time.Time) error
	MarkNoShow(ctx context.Context, id uint64, at time.Time) error
	StalePending(ctx context.Context, cutoff time.Time) ([]*model.Booking, error)
}

// RoomTypeStore is the room-type surface.
type RoomTypeStore interface {
	GetByID(ctx context.Context, id uint64) (*model.RoomType, error)
	ListActive(ctx context.Context) ([]*model.RoomType, error)
	Create(ctx context.Context, t *model.RoomType) error
}

// MaintenanceStore is the maintenance-blackout surface.
type MaintenanceStore interface {
	Insert(ctx context.Context, m *model.MaintenanceBlock) error
	Overlapping(ctx context.Context, roomID uint64, start, end time.Time) ([]model.MaintenanceBlock, error)
	ListByRoom(ctx context.Context, roomID uint64) ([]model.MaintenanceBlock, error)
	Delete(ctx context.Context, id uint64) error
}

// Notifier publishes booking lifecycle events to the broker.  Publish
// failures must never fail the booking operation that triggered them.
type Notifier interface {
	PublishBookingEvent(ctx context.Context, event queue.BookingEvent) error
}

// PaymentGateway charges and refunds.  Charge returns an opaque gateway
// reference recorded on the booking.
type PaymentGateway interface {
	Charge(ctx context.Context, bookingID uint64, amountCents uint32) (string, error)
	Refund(ctx context.Context, paymentRef string, amountCents uint32) error
}
