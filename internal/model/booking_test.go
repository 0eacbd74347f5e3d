package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, NormalizeStatus("confirmed"))
	assert.Equal(t, StatusPending, NormalizeStatus("pending"))

	st, ok := ParseStatus("confirmed")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, st)
	_, ok = ParseStatus("archived")
	assert.False(t, ok)
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	for _, s := range []BookingStatus{StatusApproved, StatusRejected, StatusCancelled, StatusCompleted} {
		assert.True(t, s.Terminal(), s)
	}
}

func TestDisplayStatusAndTabs(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	past := Booking{Status: StatusApproved, Start: now.Add(-3 * time.Hour), End: now.Add(-time.Hour)}
	future := Booking{Status: StatusApproved, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
	cancelled := Booking{Status: StatusCancelled, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}

	assert.Equal(t, StatusCompleted, past.DisplayStatus(now))
	assert.Equal(t, StatusApproved, future.DisplayStatus(now))
	assert.Equal(t, StatusCancelled, cancelled.DisplayStatus(now))

	assert.False(t, past.Upcoming(now))
	assert.True(t, future.Upcoming(now))
	assert.False(t, cancelled.Upcoming(now))

	running := Booking{Status: StatusApproved, Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	assert.True(t, running.Upcoming(now))
	assert.Equal(t, StatusApproved, running.DisplayStatus(now))
}

func TestRoomFacilities(t *testing.T) {
	r := Room{Facilities: []string{"wifi", "projector"}, Status: RoomActive}
	assert.True(t, r.HasFacilities(nil))
	assert.True(t, r.HasFacilities([]string{"projector"}))
	assert.False(t, r.HasFacilities([]string{"projector", "computer"}))
	assert.True(t, r.Bookable())
	r.Status = RoomMaintenance
	assert.False(t, r.Bookable())
}
