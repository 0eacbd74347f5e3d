package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

func newRoomFixture(rooms []model.Room) (*RoomService, *MockRoomStore, *fakeBookings) {
	store := newFakeBookings(rooms...)
	rs := new(MockRoomStore)
	svc := NewRoomService(rs, store, testPolicy())
	svc.SetClock(func() time.Time { return testNow })
	return svc, rs, store
}

func TestRoomSearch_WithoutTimeListsEverything(t *testing.T) {
	rooms := []model.Room{roomA, {ID: 2, Name: "Lab", Status: model.RoomMaintenance}}
	svc, rs, _ := newRoomFixture(rooms)
	rs.On("List", mock.Anything, repository.RoomFilter{Query: "lab", Facilities: []string{"wifi"}, MinCapacity: 10}).
		Return(rooms, nil).Once()

	got, err := svc.Search(context.Background(), RoomQuery{Q: "lab", Facilities: []string{"wifi"}, MinCapacity: 10})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	rs.AssertExpectations(t)
}

func TestRoomSearch_ExcludesBusyRooms(t *testing.T) {
	roomB := model.Room{ID: 2, Name: "Room B", Capacity: 20, Status: model.RoomActive}
	svc, rs, store := newRoomFixture([]model.Room{roomA, roomB})
	store.seed(model.BookingView{Booking: model.Booking{
		ID: 1, RoomID: roomA.ID, Status: model.StatusPending,
		Start: local("2024-06-03", "09:00"), End: local("2024-06-03", "11:00"),
	}})
	store.seed(model.BookingView{Booking: model.Booking{
		ID: 2, RoomID: roomB.ID, Status: model.StatusRejected,
		Start: local("2024-06-03", "09:00"), End: local("2024-06-03", "11:00"),
	}})
	rs.On("List", mock.Anything, mock.MatchedBy(func(f repository.RoomFilter) bool {
		return f.Status == model.RoomActive
	})).Return([]model.Room{roomA, roomB}, nil)

	got, err := svc.Search(context.Background(), RoomQuery{
		TimeInput: TimeInput{Date: "2024-06-03", StartTime: "10:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, roomB.ID, got[0].ID)

	got, err = svc.Search(context.Background(), RoomQuery{
		TimeInput: TimeInput{Date: "2024-06-03", StartTime: "11:00", EndTime: "12:00"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRoomSearch_RuleViolation(t *testing.T) {
	svc, _, _ := newRoomFixture([]model.Room{roomA})
	_, err := svc.Search(context.Background(), RoomQuery{
		TimeInput: TimeInput{Date: "2024-06-03", StartTime: "18:00", EndTime: "19:00"},
	})
	var r *availability.Reason
	require.ErrorAs(t, err, &r)
	assert.Equal(t, availability.CodeOutsideHours, r.Code)

	_, err = svc.Search(context.Background(), RoomQuery{MinCapacity: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRoomCreate(t *testing.T) {
	svc, rs, _ := newRoomFixture(nil)
	rs.On("Create", mock.Anything, mock.AnythingOfType("*model.Room")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Room).ID = 12 }).
		Return(nil)

	rm, err := svc.Create(context.Background(), RoomInput{Name: " LAB-301 ", Building: "Eng", Capacity: 40})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), rm.ID)
	assert.Equal(t, "LAB-301", rm.Name)
	assert.Equal(t, model.RoomActive, rm.Status)
	assert.NotNil(t, rm.Facilities)

	_, err = svc.Create(context.Background(), RoomInput{Capacity: 0, Status: "closed"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "capacity")
	assert.Contains(t, ve.Fields, "status")
	rs.AssertNumberOfCalls(t, "Create", 1)
}

func TestRoomCreate_CapacityUpperBound(t *testing.T) {
	svc, rs, _ := newRoomFixture(nil)
	for _, c := range []int{MaxCapacity + 1, 1<<32 + 5} {
		_, err := svc.Create(context.Background(), RoomInput{Name: "Hall", Capacity: c})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "must be at most 10000", ve.Fields["capacity"])
	}
	rs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRoomUpdate(t *testing.T) {
	svc, rs, _ := newRoomFixture(nil)
	rs.On("Update", mock.Anything, mock.MatchedBy(func(rm *model.Room) bool {
		return rm.ID == 3 && rm.Status == model.RoomMaintenance
	})).Return(nil)
	rs.On("GetByID", mock.Anything, uint64(3)).
		Return(model.Room{ID: 3, Name: "Lab", Capacity: 5, Status: model.RoomMaintenance}, nil)

	rm, err := svc.Update(context.Background(), 3, RoomInput{Name: "Lab", Capacity: 5, Status: "Maintenance"})
	require.NoError(t, err)
	assert.False(t, rm.Bookable())
}
