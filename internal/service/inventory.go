package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/clock"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// InventoryService covers the staff and admin surface of the room
// inventory: provisioning, direct status changes, maintenance
// scheduling, the manual allocation overrides and the cache-vs-ledger
// reconciliation report.
type InventoryService struct {
	tx        TxRunner
	rooms     RoomStore
	ledger    LedgerStore
	bookings  BookingStore
	roomTypes RoomTypeStore
	blocks    MaintenanceStore
	clk       clock.Clock
}

// NewInventoryService wires an InventoryService.
func NewInventoryService(tx TxRunner, rooms RoomStore, ledger LedgerStore, bookings BookingStore,
	roomTypes RoomTypeStore, blocks MaintenanceStore, clk clock.Clock) *InventoryService {
	return &InventoryService{
		tx: tx, rooms: rooms, ledger: ledger, bookings: bookings,
		roomTypes: roomTypes, blocks: blocks, clk: clk,
	}
}

// CreateRoomType registers a new room type.
func (s *InventoryService) CreateRoomType(ctx context.Context, t *model.RoomType) error {
	if t.Capacity == 0 || t.BaseRateCents == 0 {
		return repository.ErrConflict
	}
	return s.roomTypes.Create(ctx, t)
}

// ProvisionRooms bulk-creates physical rooms of a type on a floor,
// numbering them sequentially from the given start.  All rooms start
// AVAILABLE.
func (s *InventoryService) ProvisionRooms(ctx context.Context, roomTypeID uint64, floor string, startNumber, count int) ([]model.Room, error) {
	if count <= 0 || count > 500 {
		return nil, repository.ErrConflict
	}
	if _, err := s.roomTypes.GetByID(ctx, roomTypeID); err != nil {
		return nil, err
	}
	rooms := make([]model.Room, count)
	for i := range rooms {
		rooms[i] = model.Room{
			RoomTypeID: roomTypeID,
			RoomNumber: fmt.Sprintf("%s%02d", floor, startNumber+i),
			Floor:      floor,
			Status:     model.RoomStatusAvailable,
			Active:     true,
		}
	}
	if err := s.rooms.CreateBulk(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// SetRoomStatus applies a direct status change to a room.  Changing to
// MAINTENANCE or OUT_OF_SERVICE is refused while the room carries any
// ACTIVE ledger claim; the claim must be cancelled or completed first.
func (s *InventoryService) SetRoomStatus(ctx context.Context, roomID uint64, status string) error {
	switch status {
	case model.RoomStatusAvailable, model.RoomStatusMaintenance, model.RoomStatusOutOfService:
	default:
		return repository.ErrConflict
	}
	if status != model.RoomStatusAvailable {
		active, err := s.ledger.HasActive(ctx, roomID)
		if err != nil {
			return err
		}
		if active {
			return repository.ErrConflict
		}
	}
	return s.rooms.SetStatus(ctx, roomID, status)
}

// ScheduleMaintenance records a maintenance blackout for the closed day
// window [start, end].  Scheduling is refused while an ACTIVE claim
// occupies any night in the window.
func (s *InventoryService) ScheduleMaintenance(ctx context.Context, roomID uint64, start, end time.Time, reason string) (*model.MaintenanceBlock, error) {
	if end.Before(start) {
		return nil, repository.ErrConflict
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	occupied, err := s.ledger.HasActiveInWindow(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, repository.ErrConflict
	}
	block := &model.MaintenanceBlock{
		RoomID:   roomID,
		StartsOn: start.UTC(),
		EndsOn:   end.UTC(),
		Reason:   reason,
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.blocks.Insert(ctx, block); err != nil {
			return err
		}
		now := s.clk.Now()
		if model.MaintenanceOverlaps(now, now, block.StartsOn, block.EndsOn) {
			return s.rooms.SetStatus(ctx, roomID, model.RoomStatusMaintenance)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// CancelMaintenance deletes a scheduled blackout and, when the room sat
// in MAINTENANCE because of it, returns the room to AVAILABLE.
func (s *InventoryService) CancelMaintenance(ctx context.Context, roomID, blockID uint64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.blocks.Delete(ctx, blockID); err != nil {
			return err
		}
		now := s.clk.Now()
		remaining, err := s.blocks.Overlapping(ctx, roomID, now, now)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			// Ignore ErrConflict: the room was not in MAINTENANCE.
			if err := s.rooms.UpdateStatusIf(ctx, roomID, model.RoomStatusMaintenance, model.RoomStatusAvailable); err != nil && !errors.Is(err, repository.ErrConflict) {
				return err
			}
		}
		return nil
	})
}

// ForceAllocate manually binds a booking to a specific room, bypassing
// the lock protocol.  The ledger still rules: an overlapping ACTIVE
// claim on the target room rejects the override.  A PENDING booking is
// confirmed in the same step with a manual payment reference.
func (s *InventoryService) ForceAllocate(ctx context.Context, roomID, bookingID uint64) error {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
		return model.ErrInvalidTransition
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.Active || room.Status == model.RoomStatusOutOfService {
		return repository.ErrRoomUnavailable
	}
	blocks, err := s.blocks.Overlapping(ctx, roomID, b.CheckIn, b.CheckOut)
	if err != nil {
		return err
	}
	if len(blocks) > 0 {
		return repository.ErrMaintenanceConflict
	}
	now := s.clk.Now()
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		// The ledger check runs under the room's row lock so a
		// concurrent confirm cannot slip a claim in between the check
		// and the upsert.
		if err := s.rooms.LockRow(ctx, roomID); err != nil {
			return err
		}
		taken, err := s.ledger.HasActiveOverlap(ctx, roomID, b.CheckIn, b.CheckOut, b.ID)
		if err != nil {
			return err
		}
		if taken {
			return repository.ErrNoAvailability
		}
		// Re-allocation: free the cache of the previously assigned room.
		if b.RoomID != nil && *b.RoomID != roomID {
			if err := s.rooms.ClearCacheIfBooking(ctx, *b.RoomID, b.ID); err != nil {
				return err
			}
		}
		if b.Status == model.BookingPending {
			if err := s.bookings.MarkConfirmed(ctx, b.ID, roomID, "manual-override"); err != nil {
				return err
			}
		}
		entry := &model.AllocationEntry{
			BookingID:  b.ID,
			RoomID:     roomID,
			RoomTypeID: b.RoomTypeID,
			GuestName:  b.GuestName,
			CheckIn:    b.CheckIn,
			CheckOut:   b.CheckOut,
		}
		if err := s.ledger.UpsertForBooking(ctx, entry); err != nil {
			return err
		}
		if entry.ActiveNow(now) {
			return s.rooms.ApplyCache(ctx, roomID, b.ID, b.GuestName,
				b.CheckIn, b.CheckOut, now, model.RoomStatusAllocated)
		}
		return nil
	})
}

// ForceDeallocate manually releases the room's current occupant: the
// ledger claim is cancelled and the cache entry moves into history so
// the room returns to AVAILABLE.  Rooms with an empty cache are
// rejected with ErrConflict.
func (s *InventoryService) ForceDeallocate(ctx context.Context, roomID uint64) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CurrentBookingID == nil {
		return repository.ErrConflict
	}
	now := s.clk.Now()
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.SetStatusByBooking(ctx, *room.CurrentBookingID, model.AllocationCancelled); err != nil {
			return err
		}
		return s.rooms.MoveCacheToHistory(ctx, roomID, now)
	})
}

// RemoveRoom retires a room from the inventory.  Rooms with an ACTIVE
// claim are rejected; rooms with history are deactivated rather than
// deleted.
func (s *InventoryService) RemoveRoom(ctx context.Context, roomID uint64) error {
	active, err := s.ledger.HasActive(ctx, roomID)
	if err != nil {
		return err
	}
	if active {
		return repository.ErrConflict
	}
	return s.rooms.Remove(ctx, roomID)
}

// FloorView returns every room with its floor-plan cache fields, the
// live "what does the hotel look like right now" answer.
func (s *InventoryService) FloorView(ctx context.Context) ([]*model.Room, error) {
	return s.rooms.List(ctx)
}

// RoomHistory returns the past occupancy records of a room.
func (s *InventoryService) RoomHistory(ctx context.Context, roomID uint64) ([]model.AllocationHistory, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.rooms.HistoryByRoom(ctx, roomID)
}

// RoomSchedule returns a room's ACTIVE ledger entries and maintenance
// blocks, the authoritative forward calendar for the room.
func (s *InventoryService) RoomSchedule(ctx context.Context, roomID uint64) ([]*model.AllocationEntry, []model.MaintenanceBlock, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, nil, err
	}
	entries, err := s.ledger.ActiveByRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := s.blocks.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return entries, blocks, nil
}

// Reconcile reports every disagreement between the floor-plan cache and
// the allocation ledger at this instant.  Findings are reported, never
// auto-corrected.
func (s *InventoryService) Reconcile(ctx context.Context) ([]repository.Inconsistency, error) {
	return s.ledger.ReconciliationReport(ctx, s.clk.Now())
}
