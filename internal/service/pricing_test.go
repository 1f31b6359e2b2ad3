package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

func TestQuoteBlendsWeekdayAndWeekendRates(t *testing.T) {
	rt := &model.RoomType{BaseRateCents: 10000, WeekendRateCents: 15000}
	// Wed 2025-07-02 through Sun 2025-07-06: Wed+Thu base, Fri+Sat weekend.
	in := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, uint32(10000+10000+15000+15000), Pricer{}.Quote(rt, in, out))
}

func TestQuoteSeasonalRateWins(t *testing.T) {
	seasonStart := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	seasonEnd := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	rt := &model.RoomType{
		BaseRateCents:     10000,
		WeekendRateCents:  15000,
		SeasonalRateCents: 22000,
		SeasonStart:       &seasonStart,
		SeasonEnd:         &seasonEnd,
	}
	// Wed 2025-07-02 through Sat 2025-07-05: Wed+Thu before the season,
	// Fri inside it (seasonal beats weekend).
	in := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, uint32(10000+10000+22000), Pricer{}.Quote(rt, in, out))
}

func TestQuotePartialNightBillsFullNight(t *testing.T) {
	rt := &model.RoomType{BaseRateCents: 10000, WeekendRateCents: 10000}
	in := time.Date(2025, 7, 7, 15, 0, 0, 0, time.UTC)
	out := time.Date(2025, 7, 8, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, uint32(10000), Pricer{}.Quote(rt, in, out))
}
