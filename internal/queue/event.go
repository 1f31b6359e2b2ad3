// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingEvent is published whenever a booking changes status. It
// contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingEvent struct {
	BookingID  uint64 `json:"booking_id"`
	CustomerID uint64 `json:"customer_id"`
	RoomTypeID uint64 `json:"room_type_id"`
	RoomID     uint64 `json:"room_id,omitempty"`
	RoomNumber string `json:"room_number,omitempty"`
	GuestName  string `json:"guest_name"`
	Status     string `json:"status"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	TotalCents uint32 `json:"total_cents"`
	OccurredAt string `json:"occurred_at"`
}
