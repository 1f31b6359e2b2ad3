package model

import "time"

// RoomType describes a class of rooms (e.g. "Deluxe") that share
// capacity and pricing rules.  Physical rooms reference exactly one
// room type.  Rates are stored in cents; the seasonal rate applies
// to nights falling inside [SeasonStart, SeasonEnd].
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name of the type.
//  Description       – free-text description shown to customers.
//  Capacity          – maximum number of guests per room.
//  BaseRateCents     – weekday nightly rate.
//  WeekendRateCents  – Friday/Saturday nightly rate.
//  SeasonalRateCents – nightly rate during the high season window.
//  SeasonStart       – first day of the high season (nullable).
//  SeasonEnd         – last day of the high season (nullable).
//  Active            – soft-delete flag; inactive types are hidden.
type RoomType struct {
	ID                uint64     // room_types.id
	Name              string     // room_types.name
	Description       string     // room_types.description
	Capacity          uint32     // room_types.capacity
	BaseRateCents     uint32     // room_types.base_rate_cents
	WeekendRateCents  uint32     // room_types.weekend_rate_cents
	SeasonalRateCents uint32     // room_types.seasonal_rate_cents
	SeasonStart       *time.Time // room_types.season_start (nullable)
	SeasonEnd         *time.Time // room_types.season_end (nullable)
	Active            bool       // room_types.active
	CreatedAt         time.Time  // room_types.created_at
	UpdatedAt         time.Time  // room_types.updated_at
}
