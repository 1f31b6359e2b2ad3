package model

import "time"

// MaintenanceBlock is a scheduled blackout window for a single room.
// The interval is closed on both ends: the room cannot be sold on the
// start day, the end day, or any day in between.
type MaintenanceBlock struct {
	ID        uint64    // maintenance_blocks.id
	RoomID    uint64    // maintenance_blocks.room_id
	StartsOn  time.Time // maintenance_blocks.starts_on
	EndsOn    time.Time // maintenance_blocks.ends_on
	Reason    string    // maintenance_blocks.reason
	CreatedAt time.Time // maintenance_blocks.created_at
}
