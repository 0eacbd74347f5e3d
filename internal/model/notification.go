package model

import "time"

// Notification types, mirroring the colour the client shows.
const (
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Notification is a message addressed to one user, created when an admin
// decides a booking.
type Notification struct {
	ID        uint64    // notifications.id
	UserID    uint64    // notifications.user_id
	BookingID *uint64   // notifications.booking_id (nullable)
	Title     string    // notifications.title
	Message   string    // notifications.message
	Type      string    // notifications.type
	IsRead    bool      // notifications.is_read
	CreatedAt time.Time // notifications.created_at
}
