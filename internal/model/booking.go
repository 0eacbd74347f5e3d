package model

import (
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
)

// BookingStatus is the lifecycle state of a booking.
//
//	pending ──admin──▶ approved | rejected
//	pending ──owner──▶ cancelled
//
// approved, rejected and cancelled are terminal.  completed is never
// stored: it is how an approved booking whose end has passed is shown.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"

	// statusConfirmed is written by older clients and means approved.
	statusConfirmed = "confirmed"
)

// NormalizeStatus maps a stored value onto the canonical status set.
func NormalizeStatus(s string) BookingStatus {
	if s == statusConfirmed {
		return StatusApproved
	}
	return BookingStatus(s)
}

// ParseStatus accepts the canonical names only (plus the legacy alias).
func ParseStatus(s string) (BookingStatus, bool) {
	switch st := NormalizeStatus(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool { return s != StatusPending }

// Blocks reports whether a booking in this status occupies its room.
func (s BookingStatus) Blocks() bool { return availability.Blocks(string(s)) }

// Booking is a request to occupy a room for [Start, End).
//
// Fields:
//
//	ID            – primary key identifier.
//	BookingNumber – public reference (UUID) shown to the user.
//	UserID        – owner of the booking.
//	RoomID        – room being booked.
//	Start, End    – UTC instants, End exclusive.
//	Title         – purpose of the booking.
//	Attendees     – expected head count, at least one.
//	Status        – lifecycle state, see BookingStatus.
//	Note          – optional free text from the student.
//	Advisor       – optional supervising lecturer.
//	DecisionNote  – optional reason given by the admin.
//	DecidedBy     – admin who approved or rejected (nullable).
type Booking struct {
	ID            uint64        // bookings.id
	BookingNumber string        // bookings.booking_number
	UserID        uint64        // bookings.user_id
	RoomID        uint64        // bookings.room_id
	Start         time.Time     // bookings.start_time
	End           time.Time     // bookings.end_time
	Title         string        // bookings.title
	Attendees     uint32        // bookings.attendees
	Status        BookingStatus // bookings.status
	Note          string        // bookings.note
	Advisor       string        // bookings.advisor
	DecisionNote  string        // bookings.decision_note
	DecidedBy     *uint64       // bookings.decided_by (nullable)
	CreatedAt     time.Time     // bookings.created_at
	UpdatedAt     time.Time     // bookings.updated_at
}

// Interval returns the occupied range.
func (b Booking) Interval() availability.Interval {
	return availability.Interval{Start: b.Start, End: b.End}
}

// Slot converts the booking for the availability checker.
func (b Booking) Slot() availability.Slot {
	return availability.Slot{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		Status:    string(b.Status),
		Title:     b.Title,
		Interval:  b.Interval(),
	}
}

// DisplayStatus is the status shown to users at now.
func (b Booking) DisplayStatus(now time.Time) BookingStatus {
	if b.Status == StatusApproved && !b.End.After(now) {
		return StatusCompleted
	}
	return b.Status
}

// Upcoming reports whether the booking belongs on the "upcoming" tab:
// not yet over and still holding the room.
func (b Booking) Upcoming(now time.Time) bool {
	return b.End.After(now) && b.Status.Blocks()
}

// BookingView is a booking joined with the names the lists display.
type BookingView struct {
	Booking
	RoomName     string // rooms.name
	Building     string // rooms.building
	UserFullName string // users.full_name
	UserEmail    string // users.email
}

// BookingFilter narrows booking lists.  Zero fields match all.  From and
// To select bookings overlapping [From, To).
type BookingFilter struct {
	Status       BookingStatus
	OnlyBlocking bool
	RoomID       uint64
	UserID       uint64
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}
