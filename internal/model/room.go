package model

import (
	"slices"
	"time"
)

// Room states.  Rooms under maintenance are listed but not bookable.
const (
	RoomActive      = "active"
	RoomMaintenance = "maintenance"
)

// Facilities known to the room search.  Rooms may carry other tags; these
// are the ones the admin form offers.
var Facilities = []string{"wifi", "projector", "whiteboard", "computer", "aircon", "power"}

// Room is a bookable classroom or lab.
//
// Fields:
//
//	ID         – primary key identifier.
//	Name       – room label, e.g. "LAB-301".
//	Building   – building the room is in.
//	Capacity   – maximum number of attendees.
//	Facilities – equipment tags, stored as a JSON array.
//	Status     – active or maintenance.
//	ImageURL   – optional picture of the room.
type Room struct {
	ID         uint64    // rooms.id
	Name       string    // rooms.name
	Building   string    // rooms.building
	Capacity   uint32    // rooms.capacity
	Facilities []string  // rooms.facilities (JSON)
	Status     string    // rooms.status
	ImageURL   string    // rooms.image_url
	CreatedAt  time.Time // rooms.created_at
	UpdatedAt  time.Time // rooms.updated_at
}

// Bookable reports whether new bookings may be placed on the room.
func (r Room) Bookable() bool { return r.Status != RoomMaintenance }

// HasFacilities reports whether every tag in want is present on the room.
func (r Room) HasFacilities(want []string) bool {
	for _, f := range want {
		if !slices.Contains(r.Facilities, f) {
			return false
		}
	}
	return true
}
