package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// In-memory fakes mirroring the conditional-write semantics of the SQL
// repositories, so service behavior can be exercised without a
// database.

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }
func newFakeClock(t time.Time) *fakeClock    { return &fakeClock{now: t} }

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRooms struct {
	rooms   map[uint64]*model.Room
	history map[uint64][]model.AllocationHistory
	nextID  uint64
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{rooms: map[uint64]*model.Room{}, history: map[uint64][]model.AllocationHistory{}}
}

func (f *fakeRooms) add(r model.Room) *model.Room {
	f.nextID++
	r.ID = f.nextID
	if r.Status == "" {
		r.Status = model.RoomStatusAvailable
	}
	r.Active = true
	f.rooms[r.ID] = &r
	return &r
}

func (f *fakeRooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRooms) LockRow(_ context.Context, roomID uint64) error {
	if _, ok := f.rooms[roomID]; !ok {
		return repository.ErrRoomNotFound
	}
	return nil
}

func (f *fakeRooms) ActiveByType(_ context.Context, roomTypeID uint64) ([]*model.Room, error) {
	var out []*model.Room
	for _, r := range f.rooms {
		if r.Active && r.RoomTypeID == roomTypeID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (f *fakeRooms) List(_ context.Context) ([]*model.Room, error) {
	var out []*model.Room
	for _, r := range f.rooms {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRooms) CreateBulk(_ context.Context, rooms []model.Room) error {
	for _, r := range rooms {
		f.add(r)
	}
	return nil
}

func (f *fakeRooms) AcquireLock(_ context.Context, roomID, holderID uint64, token string, expiresAt time.Time) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if !r.Active || r.Status != model.RoomStatusAvailable {
		return repository.ErrRoomUnavailable
	}
	r.Status = model.RoomStatusLocked
	r.LockHolderID, r.LockToken, r.LockExpiresAt = &holderID, &token, &expiresAt
	return nil
}

func (f *fakeRooms) ReleaseLock(_ context.Context, roomID, holderID uint64, force bool) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if r.Status != model.RoomStatusLocked {
		return repository.ErrConflict
	}
	if !force && (r.LockHolderID == nil || *r.LockHolderID != holderID) {
		return repository.ErrNotAuthorized
	}
	r.Status = model.RoomStatusAvailable
	r.LockHolderID, r.LockToken, r.LockExpiresAt = nil, nil, nil
	return nil
}

func (f *fakeRooms) ClearLock(_ context.Context, roomID uint64) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	r.LockHolderID, r.LockToken, r.LockExpiresAt = nil, nil, nil
	return nil
}

func (f *fakeRooms) ReclaimExpiredLocks(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, r := range f.rooms {
		if r.Status == model.RoomStatusLocked && r.LockExpiresAt != nil && r.LockExpiresAt.Before(now) {
			r.Status = model.RoomStatusAvailable
			r.LockHolderID, r.LockToken, r.LockExpiresAt = nil, nil, nil
			n++
		}
	}
	return n, nil
}

func (f *fakeRooms) SetStatus(_ context.Context, roomID uint64, status string) error {
	r, ok := f.rooms[roomID]
	if !ok || !r.Active {
		return repository.ErrRoomNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRooms) UpdateStatusIf(_ context.Context, roomID uint64, from, to string) error {
	r, ok := f.rooms[roomID]
	if !ok || r.Status != from {
		return repository.ErrConflict
	}
	r.Status = to
	return nil
}

func (f *fakeRooms) ApplyCache(_ context.Context, roomID, bookingID uint64, guestName string, checkIn, checkOut, now time.Time, status string) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	r.Status = status
	r.CurrentBookingID, r.CurrentGuestName = &bookingID, &guestName
	r.CurrentCheckIn, r.CurrentCheckOut, r.AllocatedAt = &checkIn, &checkOut, &now
	return nil
}

func (f *fakeRooms) MoveCacheToHistory(_ context.Context, roomID uint64, now time.Time) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if r.CurrentBookingID != nil {
		f.history[roomID] = append(f.history[roomID], model.AllocationHistory{
			RoomID:        roomID,
			BookingID:     *r.CurrentBookingID,
			GuestName:     *r.CurrentGuestName,
			CheckIn:       *r.CurrentCheckIn,
			CheckOut:      *r.CurrentCheckOut,
			AllocatedAt:   *r.AllocatedAt,
			DeallocatedAt: now,
		})
	}
	r.Status = model.RoomStatusAvailable
	r.CurrentBookingID, r.CurrentGuestName = nil, nil
	r.CurrentCheckIn, r.CurrentCheckOut, r.AllocatedAt = nil, nil, nil
	return nil
}

func (f *fakeRooms) ClearCacheIfBooking(_ context.Context, roomID, bookingID uint64) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if r.CurrentBookingID != nil && *r.CurrentBookingID == bookingID {
		r.Status = model.RoomStatusAvailable
		r.CurrentBookingID, r.CurrentGuestName = nil, nil
		r.CurrentCheckIn, r.CurrentCheckOut, r.AllocatedAt = nil, nil, nil
	}
	return nil
}

func (f *fakeRooms) HistoryByRoom(_ context.Context, roomID uint64) ([]model.AllocationHistory, error) {
	return f.history[roomID], nil
}

func (f *fakeRooms) Remove(_ context.Context, roomID uint64) error {
	r, ok := f.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	r.Active = false
	return nil
}

type fakeLedger struct {
	entries map[uint64]*model.AllocationEntry // by booking id
	nextID  uint64
	report  []repository.Inconsistency
}

func newFakeLedger() *fakeLedger { return &fakeLedger{entries: map[uint64]*model.AllocationEntry{}} }

func (f *fakeLedger) GetByBooking(_ context.Context, bookingID uint64) (*model.AllocationEntry, error) {
	e, ok := f.entries[bookingID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeLedger) UpsertForBooking(_ context.Context, e *model.AllocationEntry) error {
	if cur, ok := f.entries[e.BookingID]; ok {
		e.ID = cur.ID
	} else {
		f.nextID++
		e.ID = f.nextID
	}
	e.Status = model.AllocationActive
	cp := *e
	f.entries[e.BookingID] = &cp
	return nil
}

func (f *fakeLedger) HasActiveOverlap(_ context.Context, roomID uint64, checkIn, checkOut time.Time, excludeBookingID uint64) (bool, error) {
	for _, e := range f.entries {
		if e.RoomID != roomID || e.Status != model.AllocationActive || e.BookingID == excludeBookingID {
			continue
		}
		if model.StaysOverlap(e.CheckIn, e.CheckOut, checkIn, checkOut) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) HasActive(_ context.Context, roomID uint64) (bool, error) {
	for _, e := range f.entries {
		if e.RoomID == roomID && e.Status == model.AllocationActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) HasActiveInWindow(_ context.Context, roomID uint64, start, end time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.RoomID == roomID && e.Status == model.AllocationActive &&
			!e.CheckIn.After(end) && e.CheckOut.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) SetStatusByBooking(_ context.Context, bookingID uint64, status string) error {
	if e, ok := f.entries[bookingID]; ok {
		e.Status = status
	}
	return nil
}

func (f *fakeLedger) ActiveByRoom(_ context.Context, roomID uint64) ([]*model.AllocationEntry, error) {
	var out []*model.AllocationEntry
	for _, e := range f.entries {
		if e.RoomID == roomID && e.Status == model.AllocationActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (f *fakeLedger) ReconciliationReport(_ context.Context, _ time.Time) ([]repository.Inconsistency, error) {
	return f.report, nil
}

type fakeBookings struct {
	m      map[uint64]*model.Booking
	nextID uint64
	clk    *fakeClock
}

func newFakeBookings(clk *fakeClock) *fakeBookings {
	return &fakeBookings{m: map[uint64]*model.Booking{}, clk: clk}
}

func (f *fakeBookings) Get(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.m[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) Insert(_ context.Context, b *model.Booking) error {
	f.nextID++
	b.ID = f.nextID
	b.Status = model.BookingPending
	b.PaymentStatus = model.PaymentPending
	b.CreatedAt = f.clk.Now()
	cp := *b
	f.m[b.ID] = &cp
	return nil
}

func (f *fakeBookings) ListByCustomer(_ context.Context, customerID uint64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range f.m {
		if b.CustomerID == customerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeBookings) transition(id uint64, from string, mutate func(b *model.Booking)) error {
	b, ok := f.m[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != from {
		return model.ErrInvalidTransition
	}
	mutate(b)
	return nil
}

func (f *fakeBookings) MarkConfirmed(_ context.Context, id, roomID uint64, paymentRef string) error {
	return f.transition(id, model.BookingPending, func(b *model.Booking) {
		b.Status = model.BookingConfirmed
		b.PaymentStatus = model.PaymentPaid
		b.PaymentRef = &paymentRef
		b.RoomID = &roomID
	})
}

func (f *fakeBookings) MarkCancelled(_ context.Context, id uint64, fromStatus, paymentStatus, reason string, feeCents uint32, at time.Time) error {
	return f.transition(id, fromStatus, func(b *model.Booking) {
		b.Status = model.BookingCancelled
		b.PaymentStatus = paymentStatus
		b.CancellationReason = &reason
		b.CancellationFeeCents = &feeCents
		b.CancelledAt = &at
	})
}

func (f *fakeBookings) MarkCheckedIn(_ context.Context, id, staffID uint64, proofHash string, at time.Time) error {
	return f.transition(id, model.BookingConfirmed, func(b *model.Booking) {
		b.Status = model.BookingCheckedIn
		b.CheckedInAt = &at
		b.CheckedInBy = &staffID
		b.IdentityProofHash = &proofHash
	})
}

func (f *fakeBookings) MarkCheckedOut(_ context.Context, id, staffID uint64, extraCents uint32, at time.Time) error {
	return f.transition(id, model.BookingCheckedIn, func(b *model.Booking) {
		b.Status = model.BookingCheckedOut
		b.CheckedOutAt = &at
		b.CheckedOutBy = &staffID
		b.ExtraChargesCents += extraCents
		b.TotalCents += extraCents
	})
}

func (f *fakeBookings) MarkNoShow(_ context.Context, id uint64, at time.Time) error {
	return f.transition(id, model.BookingConfirmed, func(b *model.Booking) {
		b.Status = model.BookingNoShow
		b.CancelledAt = &at
	})
}

func (f *fakeBookings) StalePending(_ context.Context, cutoff time.Time) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range f.m {
		if b.Status == model.BookingPending && b.CreatedAt.Before(cutoff) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTypes struct {
	m      map[uint64]*model.RoomType
	nextID uint64
}

func newFakeTypes() *fakeTypes { return &fakeTypes{m: map[uint64]*model.RoomType{}} }

func (f *fakeTypes) add(t model.RoomType) *model.RoomType {
	f.nextID++
	t.ID = f.nextID
	t.Active = true
	f.m[t.ID] = &t
	return &t
}

func (f *fakeTypes) GetByID(_ context.Context, id uint64) (*model.RoomType, error) {
	t, ok := f.m[id]
	if !ok {
		return nil, repository.ErrRoomTypeNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTypes) ListActive(_ context.Context) ([]*model.RoomType, error) {
	var out []*model.RoomType
	for _, t := range f.m {
		if t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTypes) Create(_ context.Context, t *model.RoomType) error {
	created := f.add(*t)
	t.ID = created.ID
	t.Active = true
	return nil
}

type fakeBlocks struct {
	blocks []model.MaintenanceBlock
	nextID uint64
}

func (f *fakeBlocks) Insert(_ context.Context, m *model.MaintenanceBlock) error {
	f.nextID++
	m.ID = f.nextID
	f.blocks = append(f.blocks, *m)
	return nil
}

func (f *fakeBlocks) Overlapping(_ context.Context, roomID uint64, start, end time.Time) ([]model.MaintenanceBlock, error) {
	var out []model.MaintenanceBlock
	for _, b := range f.blocks {
		if b.RoomID == roomID && model.MaintenanceOverlaps(start, end, b.StartsOn, b.EndsOn) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlocks) ListByRoom(_ context.Context, roomID uint64) ([]model.MaintenanceBlock, error) {
	var out []model.MaintenanceBlock
	for _, b := range f.blocks {
		if b.RoomID == roomID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlocks) Delete(_ context.Context, id uint64) error {
	for i, b := range f.blocks {
		if b.ID == id {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return nil
		}
	}
	return repository.ErrConflict
}

type fakeGateway struct {
	decline  bool
	onCharge func() // runs after a successful charge, before the caller continues
	charges  []uint32
	refunds  []uint32
}

func (f *fakeGateway) Charge(_ context.Context, bookingID uint64, amountCents uint32) (string, error) {
	if f.decline {
		return "", errors.New("card declined")
	}
	f.charges = append(f.charges, amountCents)
	ref := fmt.Sprintf("pay_%d_%d", bookingID, len(f.charges))
	if f.onCharge != nil {
		f.onCharge()
	}
	return ref, nil
}

func (f *fakeGateway) Refund(_ context.Context, _ string, amountCents uint32) error {
	f.refunds = append(f.refunds, amountCents)
	return nil
}

type fakeNotifier struct {
	events []queue.BookingEvent
	err    error
}

func (f *fakeNotifier) PublishBookingEvent(_ context.Context, e queue.BookingEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}
