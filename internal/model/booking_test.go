package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCheckedIn, false},
		{BookingConfirmed, BookingCheckedIn, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingNoShow, true},
		{BookingConfirmed, BookingCheckedOut, false},
		{BookingCheckedIn, BookingCheckedOut, true},
		{BookingCheckedIn, BookingCancelled, false},
		{BookingCheckedIn, BookingNoShow, false},
		{BookingCheckedOut, BookingConfirmed, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingNoShow, BookingCheckedIn, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanBeCancelled(t *testing.T) {
	checkIn := time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)
	b := &Booking{Status: BookingConfirmed, CheckIn: checkIn}

	assert.True(t, b.CanBeCancelled(checkIn.Add(-25*time.Hour)))
	// At exactly 24 hours the normal path is refused.
	assert.False(t, b.CanBeCancelled(checkIn.Add(-24*time.Hour)))
	assert.False(t, b.CanBeCancelled(checkIn.Add(-time.Hour)))

	b.Status = BookingCheckedIn
	assert.False(t, b.CanBeCancelled(checkIn.Add(-72*time.Hour)))
	b.Status = BookingCancelled
	assert.False(t, b.CanBeCancelled(checkIn.Add(-72*time.Hour)))
}

func TestCancellationFeeTiers(t *testing.T) {
	checkIn := time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)
	b := &Booking{Status: BookingConfirmed, CheckIn: checkIn, TotalCents: 40000}

	cases := []struct {
		name   string
		before time.Duration
		want   uint32
	}{
		{"inside 24h", 12 * time.Hour, 40000},
		{"exactly 24h", 24 * time.Hour, 40000},
		{"inside 48h", 36 * time.Hour, 20000},
		{"exactly 48h", 48 * time.Hour, 20000},
		{"inside 72h", 60 * time.Hour, 10000},
		{"exactly 72h", 72 * time.Hour, 10000},
		{"outside 72h", 72*time.Hour + time.Second, 0},
		{"a week out", 7 * 24 * time.Hour, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.CancellationFeeCentsAt(checkIn.Add(-tc.before)))
		})
	}
}
