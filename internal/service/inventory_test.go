package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

func newInventoryEnv(t *testing.T) (*bookingEnv, *InventoryService) {
	t.Helper()
	env := newBookingEnv(t)
	inv := NewInventoryService(fakeTx{}, env.rooms, env.ledger, env.bookings,
		env.types, env.blocks, env.clk)
	return env, inv
}

func TestProvisionRoomsNumbersSequentially(t *testing.T) {
	env, inv := newInventoryEnv(t)
	rooms, err := inv.ProvisionRooms(context.Background(), env.rt.ID, "04", 1, 3)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "0401", rooms[0].RoomNumber)
	assert.Equal(t, "0403", rooms[2].RoomNumber)

	_, err = inv.ProvisionRooms(context.Background(), 999, "04", 1, 1)
	assert.ErrorIs(t, err, repository.ErrRoomTypeNotFound)
}

func TestSetRoomStatusGuardedByLedger(t *testing.T) {
	env, inv := newInventoryEnv(t)
	in := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	env.createConfirmed(t, in, in.Add(48*time.Hour))

	err := inv.SetRoomStatus(context.Background(), env.room.ID, model.RoomStatusOutOfService)
	assert.ErrorIs(t, err, repository.ErrConflict)

	// Cancelling the claim unblocks the change.
	for id := range env.bookings.m {
		_, err := env.svc.Cancel(context.Background(), id, 1, "test", true)
		require.NoError(t, err)
	}
	assert.NoError(t, inv.SetRoomStatus(context.Background(), env.room.ID, model.RoomStatusOutOfService))
}

func TestScheduleMaintenanceRejectsOccupiedWindow(t *testing.T) {
	env, inv := newInventoryEnv(t)
	in := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	out := in.Add(72 * time.Hour)
	env.createConfirmed(t, in, out)

	_, err := inv.ScheduleMaintenance(context.Background(), env.room.ID, in.Add(24*time.Hour), in.Add(48*time.Hour), "hvac")
	assert.ErrorIs(t, err, repository.ErrConflict)

	// A window after the stay is fine and future-dated blocks do not flip
	// the room's status today.
	block, err := inv.ScheduleMaintenance(context.Background(), env.room.ID, out.Add(24*time.Hour), out.Add(72*time.Hour), "hvac")
	require.NoError(t, err)
	assert.NotZero(t, block.ID)
	room, _ := env.rooms.GetByID(context.Background(), env.room.ID)
	assert.NotEqual(t, model.RoomStatusMaintenance, room.Status)
}

func TestScheduleMaintenanceCoveringTodayFlipsStatus(t *testing.T) {
	env, inv := newInventoryEnv(t)
	now := env.clk.Now()
	_, err := inv.ScheduleMaintenance(context.Background(), env.room.ID, now.Add(-time.Hour), now.Add(48*time.Hour), "flood damage")
	require.NoError(t, err)

	room, _ := env.rooms.GetByID(context.Background(), env.room.ID)
	assert.Equal(t, model.RoomStatusMaintenance, room.Status)
}

func TestForceAllocateRespectsLedger(t *testing.T) {
	env, inv := newInventoryEnv(t)
	other := env.rooms.add(model.Room{RoomTypeID: env.rt.ID, RoomNumber: "0205", Floor: "02"})
	in := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	out := in.Add(48 * time.Hour)
	b1 := env.createConfirmed(t, in, out)

	pending, err := env.svc.Create(context.Background(), CreateInput{
		CustomerID: 2, RoomTypeID: env.rt.ID, GuestName: "Eve Short",
		GuestsAdults: 1, CheckIn: in, CheckOut: out,
	})
	require.NoError(t, err)

	// The room already claimed by b1 rejects the override.
	err = inv.ForceAllocate(context.Background(), *b1.RoomID, pending.ID)
	assert.ErrorIs(t, err, repository.ErrNoAvailability)

	// The free room accepts it and confirms the PENDING booking.
	require.NoError(t, inv.ForceAllocate(context.Background(), other.ID, pending.ID))
	got, _ := env.bookings.Get(context.Background(), pending.ID)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	require.NotNil(t, got.RoomID)
	assert.Equal(t, other.ID, *got.RoomID)
}

func TestForceDeallocateMovesCacheToHistory(t *testing.T) {
	env, inv := newInventoryEnv(t)
	in := env.clk.Now().Truncate(24 * time.Hour)
	b := env.createConfirmed(t, in, in.Add(48*time.Hour))

	require.NoError(t, inv.ForceDeallocate(context.Background(), *b.RoomID))

	room, _ := env.rooms.GetByID(context.Background(), *b.RoomID)
	assert.Equal(t, model.RoomStatusAvailable, room.Status)
	assert.Nil(t, room.CurrentBookingID)

	history, _ := env.rooms.HistoryByRoom(context.Background(), *b.RoomID)
	require.Len(t, history, 1)
	assert.Equal(t, b.ID, history[0].BookingID)

	entry, _ := env.ledger.GetByBooking(context.Background(), b.ID)
	assert.Equal(t, model.AllocationCancelled, entry.Status)

	// Empty cache rejects a second deallocation.
	assert.ErrorIs(t, inv.ForceDeallocate(context.Background(), *b.RoomID), repository.ErrConflict)
}

func TestRemoveRoomBlockedByActiveClaim(t *testing.T) {
	env, inv := newInventoryEnv(t)
	in := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	env.createConfirmed(t, in, in.Add(48*time.Hour))

	assert.ErrorIs(t, inv.RemoveRoom(context.Background(), env.room.ID), repository.ErrConflict)
}

func TestReconcilePassesThroughFindings(t *testing.T) {
	env, inv := newInventoryEnv(t)
	env.ledger.report = []repository.Inconsistency{{RoomID: 1, BookingID: 2, Kind: "cache_without_ledger"}}

	findings, err := inv.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "cache_without_ledger", findings[0].Kind)
}
