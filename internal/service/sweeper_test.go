package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

func TestSweepReclaimsExpiredLocks(t *testing.T) {
	env := newBookingEnv(t)
	locked := env.rooms.add(model.Room{RoomTypeID: env.rt.ID, RoomNumber: "0301", Floor: "03"})
	fresh := env.rooms.add(model.Room{RoomTypeID: env.rt.ID, RoomNumber: "0302", Floor: "03"})

	expired := env.clk.Now().Add(-time.Minute)
	live := env.clk.Now().Add(3 * time.Minute)
	require.NoError(t, env.rooms.AcquireLock(context.Background(), locked.ID, 1, "tok-a", expired))
	require.NoError(t, env.rooms.AcquireLock(context.Background(), fresh.ID, 2, "tok-b", live))

	sweeper := NewSweeper(env.rooms, env.svc, env.clk, time.Minute)
	locks, pending, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), locks)
	assert.Equal(t, 0, pending)

	got, _ := env.rooms.GetByID(context.Background(), locked.ID)
	assert.Equal(t, model.RoomStatusAvailable, got.Status)
	assert.Nil(t, got.LockToken)

	// The unexpired lock survives the pass.
	got, _ = env.rooms.GetByID(context.Background(), fresh.ID)
	assert.Equal(t, model.RoomStatusLocked, got.Status)
}

func TestSweepCancelsStalePendingBookings(t *testing.T) {
	env := newBookingEnv(t)
	in := env.clk.Now().Add(5 * 24 * time.Hour)

	stale, err := env.svc.Create(context.Background(), CreateInput{
		CustomerID: 1, RoomTypeID: env.rt.ID, GuestName: "Dana Vance",
		GuestsAdults: 1, CheckIn: in, CheckOut: in.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	env.clk.advance(10 * time.Minute)
	recent, err := env.svc.Create(context.Background(), CreateInput{
		CustomerID: 2, RoomTypeID: env.rt.ID, GuestName: "Eve Short",
		GuestsAdults: 1, CheckIn: in, CheckOut: in.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	// Past the 15-minute payment window for the first booking only.
	env.clk.advance(6 * time.Minute)
	sweeper := NewSweeper(env.rooms, env.svc, env.clk, time.Minute)
	_, pending, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	got, _ := env.bookings.Get(context.Background(), stale.ID)
	assert.Equal(t, model.BookingCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, "payment window elapsed", *got.CancellationReason)

	got, _ = env.bookings.Get(context.Background(), recent.ID)
	assert.Equal(t, model.BookingPending, got.Status)
}

func TestSweepSkipsBookingsConfirmedMidPass(t *testing.T) {
	env := newBookingEnv(t)
	in := env.clk.Now().Add(5 * 24 * time.Hour)
	b, err := env.svc.Create(context.Background(), CreateInput{
		CustomerID: 1, RoomTypeID: env.rt.ID, GuestName: "Dana Vance",
		GuestsAdults: 1, CheckIn: in, CheckOut: in.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	env.clk.advance(16 * time.Minute)
	_, err = env.svc.ConfirmPayment(context.Background(), b.ID, 1)
	require.NoError(t, err)

	// Confirmed between the stale query and the cancel write: the
	// conditional transition loses and the booking stays CONFIRMED.
	pending, err := env.svc.ExpirePending(context.Background(), env.clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	got, _ := env.bookings.Get(context.Background(), b.ID)
	assert.Equal(t, model.BookingConfirmed, got.Status)
}
