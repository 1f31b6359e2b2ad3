package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/clock"
)

// DefaultSweepInterval is how often the reclamation sweeper runs.
const DefaultSweepInterval = time.Minute

// Sweeper is the background reclamation loop: on every pass it resets
// rooms whose reservation lock expired back to AVAILABLE and cancels
// PENDING bookings whose payment window elapsed.  Lock validity is
// enforced at confirm time by timestamp comparison, so the sweeper is
// housekeeping, not a correctness dependency; a delayed pass only means
// expired locks linger a little longer before the rooms are resold.
type Sweeper struct {
	rooms    RoomStore
	bookings *BookingService
	clk      clock.Clock
	interval time.Duration
}

// NewSweeper wires a Sweeper.  A zero interval falls back to
// DefaultSweepInterval.
func NewSweeper(rooms RoomStore, bookings *BookingService, clk clock.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{rooms: rooms, bookings: bookings, clk: clk, interval: interval}
}

// Start runs the sweep loop until the context is cancelled.  Call it in
// its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("sweeper: started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			locks, pending, err := s.SweepOnce(ctx)
			if err != nil {
				log.Printf("sweeper: pass failed: %v", err)
				continue
			}
			if locks > 0 || pending > 0 {
				log.Printf("sweeper: reclaimed %d expired locks, cancelled %d stale pending bookings", locks, pending)
			}
		}
	}
}

// SweepOnce performs one reclamation pass and returns how many locks
// were reclaimed and how many stale PENDING bookings were cancelled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, int, error) {
	now := s.clk.Now()
	locks, err := s.rooms.ReclaimExpiredLocks(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	pending, err := s.bookings.ExpirePending(ctx, now)
	if err != nil {
		return locks, pending, err
	}
	return locks, pending, nil
}
