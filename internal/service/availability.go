package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// roomSellable reports whether a specific room can host the window:
// the room must be in service, free of maintenance blackouts touching
// the window, and free of overlapping ACTIVE ledger claims.  Room
// status is deliberately not consulted for dates: a room OCCUPIED today
// can still be sold for next month.  Only the ledger decides.
func (s *BookingService) roomSellable(ctx context.Context, room *model.Room, checkIn, checkOut time.Time) (bool, error) {
	if !room.Active || room.Status == model.RoomStatusMaintenance || room.Status == model.RoomStatusOutOfService {
		return false, nil
	}
	blocks, err := s.blocks.Overlapping(ctx, room.ID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	if len(blocks) > 0 {
		return false, nil
	}
	taken, err := s.ledger.HasActiveOverlap(ctx, room.ID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// FindFreeRoom returns the first sellable room of the type for the
// window, scanning in room-number order.  Rooms currently LOCKED by a
// checkout in progress are skipped; the locked room may still fall
// through and the next free one is taken instead.  Returns
// ErrNoAvailability when every room is claimed.
func (s *BookingService) FindFreeRoom(ctx context.Context, roomTypeID uint64, checkIn, checkOut time.Time) (*model.Room, error) {
	rooms, err := s.rooms.ActiveByType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.Status == model.RoomStatusLocked {
			continue
		}
		ok, err := s.roomSellable(ctx, room, checkIn, checkOut)
		if err != nil {
			return nil, err
		}
		if ok {
			return room, nil
		}
	}
	return nil, repository.ErrNoAvailability
}

// CountFree returns how many rooms of the type are sellable for the
// window.
func (s *BookingService) CountFree(ctx context.Context, roomTypeID uint64, checkIn, checkOut time.Time) (int, error) {
	rooms, err := s.rooms.ActiveByType(ctx, roomTypeID)
	if err != nil {
		return 0, err
	}
	free := 0
	for _, room := range rooms {
		ok, err := s.roomSellable(ctx, room, checkIn, checkOut)
		if err != nil {
			return 0, err
		}
		if ok {
			free++
		}
	}
	return free, nil
}

// CheckRoomFree reports whether one specific room is sellable for the
// window.
func (s *BookingService) CheckRoomFree(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (bool, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	return s.roomSellable(ctx, room, checkIn, checkOut)
}

// TypeAvailability summarizes one room type's availability for a
// window.
type TypeAvailability struct {
	RoomType   *model.RoomType `json:"room_type"`
	FreeRooms  int             `json:"free_rooms"`
	TotalCents uint32          `json:"total_cents"`
	Nights     int             `json:"nights"`
}

// Availability returns the per-type availability summary for the
// window, priced with the type's rate card.
func (s *BookingService) Availability(ctx context.Context, checkIn, checkOut time.Time) ([]TypeAvailability, error) {
	if err := validateStay(checkIn, checkOut, s.clk.Now()); err != nil {
		return nil, err
	}
	types, err := s.roomTypes.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TypeAvailability, 0, len(types))
	for _, rt := range types {
		free, err := s.CountFree(ctx, rt.ID, checkIn, checkOut)
		if err != nil {
			return nil, err
		}
		out = append(out, TypeAvailability{
			RoomType:   rt,
			FreeRooms:  free,
			TotalCents: s.pricer.Quote(rt, checkIn, checkOut),
			Nights:     model.Nights(checkIn, checkOut),
		})
	}
	return out, nil
}
