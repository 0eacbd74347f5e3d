// Package queue carries booking events over RabbitMQ: the API server
// publishes them, cmd/worker consumes them.
package queue

import (
	"encoding/json"
	"fmt"
)

// BookingDecidedQueue is the durable queue admin decisions are published to.
const BookingDecidedQueue = "booking.decided"

// BookingDecidedEvent is published after an admin approves or rejects a
// booking.  It carries enough for the worker to log and mail the owner
// without reading the database.  Times are RFC 3339 in UTC.
type BookingDecidedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	UserID        uint64 `json:"user_id"`
	UserEmail     string `json:"user_email"`
	UserName      string `json:"user_name"`
	RoomID        uint64 `json:"room_id"`
	RoomName      string `json:"room_name"`
	Building      string `json:"building"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	DecidedBy     uint64 `json:"decided_by"`
	DecidedAt     string `json:"decided_at"`
}

// DecodeBookingDecided parses a delivery body.  Events without a booking
// id or status are malformed.
func DecodeBookingDecided(body []byte) (BookingDecidedEvent, error) {
	var ev BookingDecidedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == 0 || ev.Status == "" {
		return ev, fmt.Errorf("incomplete booking.decided event: %s", body)
	}
	return ev, nil
}
