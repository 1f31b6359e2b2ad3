package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestStaysOverlap(t *testing.T) {
	// Plain overlap.
	assert.True(t, StaysOverlap(day(1), day(5), day(3), day(7)))
	// Containment.
	assert.True(t, StaysOverlap(day(1), day(10), day(3), day(4)))
	// Disjoint.
	assert.False(t, StaysOverlap(day(1), day(3), day(5), day(7)))
	// Turnover rule: checkout day equals the next check-in day.
	assert.False(t, StaysOverlap(day(1), day(5), day(5), day(8)))
	assert.False(t, StaysOverlap(day(5), day(8), day(1), day(5)))
	// One shared night does overlap.
	assert.True(t, StaysOverlap(day(1), day(6), day(5), day(8)))
}

func TestMaintenanceOverlaps(t *testing.T) {
	// Closed intervals: sharing a single boundary day conflicts.
	assert.True(t, MaintenanceOverlaps(day(1), day(5), day(5), day(8)))
	assert.True(t, MaintenanceOverlaps(day(5), day(8), day(1), day(5)))
	assert.True(t, MaintenanceOverlaps(day(3), day(4), day(1), day(10)))
	assert.False(t, MaintenanceOverlaps(day(1), day(4), day(5), day(8)))
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, Nights(day(1), day(2)))
	assert.Equal(t, 4, Nights(day(1), day(5)))
	// Partial periods round up.
	assert.Equal(t, 2, Nights(day(1), day(2).Add(3*time.Hour)))
}

func TestAllocationActiveNow(t *testing.T) {
	a := &AllocationEntry{CheckIn: day(3), CheckOut: day(6)}
	assert.False(t, a.ActiveNow(day(2)))
	assert.True(t, a.ActiveNow(day(3)))
	assert.True(t, a.ActiveNow(day(5).Add(23*time.Hour)))
	// Check-out instant is no longer active.
	assert.False(t, a.ActiveNow(day(6)))
}
