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

type lockEnv struct {
	clk      *fakeClock
	rooms    *fakeRooms
	ledger   *fakeLedger
	bookings *fakeBookings
	types    *fakeTypes
	blocks   *fakeBlocks
	gateway  *fakeGateway
	notifier *fakeNotifier
	mgr      *LockManager
	room     *model.Room
	rt       *model.RoomType
}

func newLockEnv(t *testing.T) *lockEnv {
	t.Helper()
	clk := newFakeClock(time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC))
	env := &lockEnv{
		clk:      clk,
		rooms:    newFakeRooms(),
		ledger:   newFakeLedger(),
		bookings: newFakeBookings(clk),
		types:    newFakeTypes(),
		blocks:   &fakeBlocks{},
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
	}
	env.rt = env.types.add(model.RoomType{Name: "Deluxe", Capacity: 2, BaseRateCents: 10000, WeekendRateCents: 12000})
	env.room = env.rooms.add(model.Room{RoomTypeID: env.rt.ID, RoomNumber: "0101", Floor: "01"})
	env.mgr = NewLockManager(fakeTx{}, env.rooms, env.ledger, env.bookings,
		env.types, env.blocks, env.gateway, env.notifier, clk, 5*time.Minute)
	return env
}

func (e *lockEnv) window() (time.Time, time.Time) {
	return time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)
}

func TestLockIsExclusive(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()

	token, expiresAt, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, env.clk.Now().Add(5*time.Minute), expiresAt)

	// A second customer cannot lock the same room.
	_, _, err = env.mgr.Lock(context.Background(), env.room.ID, 2, in, out)
	assert.ErrorIs(t, err, repository.ErrRoomUnavailable)
}

func TestLockRejectsLedgerOverlap(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()
	require.NoError(t, env.ledger.UpsertForBooking(context.Background(), &model.AllocationEntry{
		BookingID: 99, RoomID: env.room.ID, RoomTypeID: env.rt.ID,
		CheckIn: in, CheckOut: out,
	}))

	_, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in.Add(24*time.Hour), out.Add(24*time.Hour))
	assert.ErrorIs(t, err, repository.ErrNoAvailability)

	// The adjacent window starting on the checkout day is fine.
	_, _, err = env.mgr.Lock(context.Background(), env.room.ID, 1, out, out.Add(48*time.Hour))
	assert.NoError(t, err)
}

func TestLockRejectsMaintenanceWindow(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()
	require.NoError(t, env.blocks.Insert(context.Background(), &model.MaintenanceBlock{
		RoomID: env.room.ID, StartsOn: out, EndsOn: out.Add(48 * time.Hour),
	}))

	// Maintenance intervals are closed: sharing the boundary day conflicts
	// even though a guest stay would not.
	_, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	assert.ErrorIs(t, err, repository.ErrMaintenanceConflict)
}

func TestUnlockRequiresHolder(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()
	_, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	assert.ErrorIs(t, env.mgr.Unlock(context.Background(), env.room.ID, 2, false), repository.ErrNotAuthorized)
	assert.NoError(t, env.mgr.Unlock(context.Background(), env.room.ID, 2, true))

	room, _ := env.rooms.GetByID(context.Background(), env.room.ID)
	assert.Equal(t, model.RoomStatusAvailable, room.Status)
}

func TestConfirmHappyPath(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()
	token, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	b, err := env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 1, Token: token,
		GuestName: "Dana Vance", GuestsAdults: 2,
		CheckIn: in, CheckOut: out,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
	// Thu+Fri+Sat nights: 10000 + 12000 + 12000.
	assert.Equal(t, uint32(10000+12000+12000), b.TotalCents)

	entry, err := env.ledger.GetByBooking(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.AllocationActive, entry.Status)

	// Future stay: the room returns to AVAILABLE with the lock cleared,
	// and the floor-plan cache stays empty.
	room, _ := env.rooms.GetByID(context.Background(), env.room.ID)
	assert.Equal(t, model.RoomStatusAvailable, room.Status)
	assert.Nil(t, room.LockToken)
	assert.Nil(t, room.CurrentBookingID)

	require.Len(t, env.notifier.events, 1)
	assert.Equal(t, model.BookingConfirmed, env.notifier.events[0].Status)
}

func TestConfirmStayStartingNowFillsCache(t *testing.T) {
	env := newLockEnv(t)
	in := env.clk.Now().Truncate(24 * time.Hour)
	out := in.Add(48 * time.Hour)
	token, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	b, err := env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 1, Token: token,
		GuestName: "Dana Vance", GuestsAdults: 1,
		CheckIn: in, CheckOut: out,
	})
	require.NoError(t, err)

	room, _ := env.rooms.GetByID(context.Background(), env.room.ID)
	assert.Equal(t, model.RoomStatusAllocated, room.Status)
	require.NotNil(t, room.CurrentBookingID)
	assert.Equal(t, b.ID, *room.CurrentBookingID)
	assert.Nil(t, room.LockToken)
}

func TestConfirmExpiredLock(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()
	token, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	// Past the TTL the token no longer confirms, even before the sweeper
	// has reclaimed the room.
	env.clk.advance(5*time.Minute + time.Second)
	_, err = env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 1, Token: token,
		GuestName: "Dana Vance", GuestsAdults: 1,
		CheckIn: in, CheckOut: out,
	})
	assert.ErrorIs(t, err, repository.ErrLockExpired)
	assert.Empty(t, env.gateway.charges)
}

func TestConfirmTokenAndHolderMismatch(t *testing.T) {
	env := newLockEnv(t)
	in, out := env.window()
	token, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	_, err = env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 1, Token: "bogus",
		GuestName: "Dana Vance", GuestsAdults: 1, CheckIn: in, CheckOut: out,
	})
	assert.ErrorIs(t, err, repository.ErrLockMismatch)

	_, err = env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 2, Token: token,
		GuestName: "Eve Short", GuestsAdults: 1, CheckIn: in, CheckOut: out,
	})
	assert.ErrorIs(t, err, repository.ErrLockMismatch)
}

func TestConfirmPaymentDeclinedReleasesRoom(t *testing.T) {
	env := newLockEnv(t)
	env.gateway.decline = true
	in, out := env.window()
	token, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	_, err = env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 1, Token: token,
		GuestName: "Dana Vance", GuestsAdults: 1, CheckIn: in, CheckOut: out,
	})
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	room, _ := env.rooms.GetByID(context.Background(), env.room.ID)
	assert.Equal(t, model.RoomStatusAvailable, room.Status)

	// The short-lived PENDING booking was cancelled, not left dangling.
	for _, b := range env.bookings.m {
		assert.Equal(t, model.BookingCancelled, b.Status)
		assert.Equal(t, model.PaymentFailed, b.PaymentStatus)
	}
}

func TestConfirmNotificationFailureDoesNotFailBooking(t *testing.T) {
	env := newLockEnv(t)
	env.notifier.err = assert.AnError
	in, out := env.window()
	token, _, err := env.mgr.Lock(context.Background(), env.room.ID, 1, in, out)
	require.NoError(t, err)

	b, err := env.mgr.Confirm(context.Background(), ConfirmInput{
		RoomID: env.room.ID, CustomerID: 1, Token: token,
		GuestName: "Dana Vance", GuestsAdults: 1, CheckIn: in, CheckOut: out,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b.Status)
}
