package service

import (
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// Pricer computes stay totals from a room type's rate card.  Each night
// is priced by the calendar day it starts on: seasonal rate when the
// day falls inside the type's high-season window, otherwise the weekend
// rate on Friday and Saturday nights, otherwise the base rate.
type Pricer struct{}

// Quote returns the total price in cents for the stay window.  Partial
// final periods bill as full nights, matching model.Nights.
func (Pricer) Quote(t *model.RoomType, checkIn, checkOut time.Time) uint32 {
	nights := model.Nights(checkIn, checkOut)
	var total uint32
	for i := 0; i < nights; i++ {
		total += Pricer{}.NightRate(t, checkIn.Add(time.Duration(i)*24*time.Hour))
	}
	return total
}

// NightRate returns the rate in cents for the night starting at the
// given instant.
func (Pricer) NightRate(t *model.RoomType, night time.Time) uint32 {
	if t.SeasonStart != nil && t.SeasonEnd != nil &&
		!night.Before(*t.SeasonStart) && !night.After(*t.SeasonEnd) {
		return t.SeasonalRateCents
	}
	switch night.UTC().Weekday() {
	case time.Friday, time.Saturday:
		return t.WeekendRateCents
	default:
		return t.BaseRateCents
	}
}
