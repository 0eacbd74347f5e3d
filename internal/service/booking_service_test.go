package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

// Thursday 2024-05-30 09:00 local.
var testNow = time.Date(2024, 5, 30, 9, 0, 0, 0, bangkok)

func testPolicy() availability.Policy {
	return availability.Policy{
		Location:    bangkok,
		OpenAt:      availability.MustClock("08:00"),
		CloseAt:     availability.MustClock("17:00"),
		BreakStart:  availability.MustClock("12:00"),
		BreakEnd:    availability.MustClock("13:00"),
		MaxAdvance:  90 * 24 * time.Hour,
		MinDuration: 30 * time.Minute,
	}
}

func local(date, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, bangkok)
	if err != nil {
		panic(err)
	}
	return t
}

var roomA = model.Room{ID: 1, Name: "Room A", Building: "Science", Capacity: 30, Status: model.RoomActive}

type bookingFixture struct {
	svc    *BookingService
	store  *fakeBookings
	users  *MockUserStore
	rooms  *MockRoomStore
	notes  *MockNotificationStore
	events *MockPublisher
}

func newBookingFixture(t *testing.T, rooms ...model.Room) *bookingFixture {
	t.Helper()
	if len(rooms) == 0 {
		rooms = []model.Room{roomA}
	}
	f := &bookingFixture{
		store:  newFakeBookings(rooms...),
		users:  new(MockUserStore),
		rooms:  new(MockRoomStore),
		notes:  new(MockNotificationStore),
		events: new(MockPublisher),
	}
	for _, rm := range rooms {
		f.rooms.On("GetByID", mock.Anything, rm.ID).Return(rm, nil).Maybe()
	}
	f.users.On("GetByID", mock.Anything, uint64(7)).
		Return(model.User{ID: 7, Role: model.RoleStudent, Status: model.UserActive}, nil).Maybe()
	f.svc = NewBookingService(f.store, f.rooms, f.users, f.notes, testPolicy(),
		WithEvents(f.events),
		WithClock(func() time.Time { return testNow }),
		WithReferenceGenerator(func() string { return "BK-TEST" }),
	)
	return f
}

func submitInput(date, start, end string) SubmitInput {
	return SubmitInput{
		RoomID:    roomA.ID,
		Title:     "Study group",
		Attendees: 5,
		TimeInput: TimeInput{Date: date, StartTime: start, EndTime: end},
	}
}

func TestSubmit_RoomAScenario(t *testing.T) {
	f := newBookingFixture(t)
	f.store.seed(model.BookingView{Booking: model.Booking{
		ID: 1, UserID: 9, RoomID: roomA.ID, Status: model.StatusApproved, Title: "Lecture",
		Start: local("2024-06-01", "13:00"), End: local("2024-06-01", "15:00"),
	}})

	_, err := f.svc.Submit(context.Background(), 7, submitInput("2024-06-01", "14:00", "16:00"))
	var ce *availability.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint64(1), ce.Slot.BookingID)
	assert.Equal(t, 1, len(f.store.rows), "rejected request must not be stored")

	b, err := f.svc.Submit(context.Background(), 7, submitInput("2024-06-01", "15:00", "17:00"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, "BK-TEST", b.BookingNumber)
	assert.True(t, b.Start.Equal(local("2024-06-01", "15:00")))
	assert.Equal(t, time.UTC, b.Start.Location())
	f.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishBookingDecided", mock.Anything, mock.Anything)
}

func TestSubmit_CancelledBookingDoesNotBlock(t *testing.T) {
	f := newBookingFixture(t)
	f.store.seed(model.BookingView{Booking: model.Booking{
		ID: 1, RoomID: roomA.ID, Status: model.StatusCancelled,
		Start: local("2024-06-03", "09:00"), End: local("2024-06-03", "11:00"),
	}})
	_, err := f.svc.Submit(context.Background(), 7, submitInput("2024-06-03", "09:00", "11:00"))
	require.NoError(t, err)
}

func TestSubmit_Validation(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Submit(context.Background(), 7, SubmitInput{
		RoomID:    roomA.ID,
		TimeInput: TimeInput{Date: "2024-06-03", StartTime: "10:00", EndTime: "09:00"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "attendees")
	assert.Contains(t, ve.Fields, "end_time")

	_, err = f.svc.Submit(context.Background(), 7, submitInput("03/06/2024", "10:00", "11:00"))
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "date")

	assert.Empty(t, f.store.rows)
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSubmit_EqualStartAndEndRejectedBeforeWrite(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.svc.Submit(context.Background(), 7, submitInput("2024-06-03", "10:00", "10:00"))
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.store.inserts)
}

func TestSubmit_DurationInput(t *testing.T) {
	f := newBookingFixture(t)
	in := submitInput("2024-06-03", "09:00", "")
	in.DurationMinutes = 90
	b, err := f.svc.Submit(context.Background(), 7, in)
	require.NoError(t, err)
	assert.True(t, b.End.Equal(local("2024-06-03", "10:30")))
}

func TestSubmit_PolicyReasons(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		start, end string
		code       availability.Code
	}{
		{"break", "2024-06-03", "11:30", "12:30", availability.CodeBreakWindow},
		{"before opening", "2024-06-03", "07:00", "09:00", availability.CodeOutsideHours},
		{"after closing", "2024-06-03", "16:00", "18:00", availability.CodeOutsideHours},
		{"in the past", "2024-05-29", "09:00", "10:00", availability.CodeInPast},
		{"too far ahead", "2024-12-02", "09:00", "10:00", availability.CodeTooFarAhead},
		{"too short", "2024-06-03", "09:00", "09:15", availability.CodeTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			_, err := f.svc.Submit(context.Background(), 7, submitInput(tt.date, tt.start, tt.end))
			var r *availability.Reason
			require.ErrorAs(t, err, &r)
			assert.Equal(t, tt.code, r.Code)
			assert.Zero(t, f.store.inserts)
		})
	}
}

func TestSubmit_BannedUser(t *testing.T) {
	f := newBookingFixture(t)
	f.users.On("GetByID", mock.Anything, uint64(8)).
		Return(model.User{ID: 8, Status: model.UserBanned}, nil)
	_, err := f.svc.Submit(context.Background(), 8, submitInput("2024-06-03", "09:00", "10:00"))
	assert.ErrorIs(t, err, ErrBanned)
	assert.Zero(t, f.store.inserts)
}

func TestSubmit_RoomUnderMaintenance(t *testing.T) {
	rm := model.Room{ID: 2, Name: "Lab", Capacity: 10, Status: model.RoomMaintenance}
	f := newBookingFixture(t, rm)
	in := submitInput("2024-06-03", "09:00", "10:00")
	in.RoomID = rm.ID
	_, err := f.svc.Submit(context.Background(), 7, in)
	assert.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestSubmit_OverCapacity(t *testing.T) {
	f := newBookingFixture(t)
	in := submitInput("2024-06-03", "09:00", "10:00")
	in.Attendees = 31
	_, err := f.svc.Submit(context.Background(), 7, in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["attendees"], "30")
}

func TestSubmit_AttendeesBeyondUint32NeverWrap(t *testing.T) {
	f := newBookingFixture(t)
	for _, n := range []int{MaxCapacity + 1, 1<<32 + 1} {
		in := submitInput("2024-06-03", "09:00", "10:00")
		in.Attendees = n
		_, err := f.svc.Submit(context.Background(), 7, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "attendees=%d", n)
		assert.Contains(t, ve.Fields, "attendees")
	}
	assert.Zero(t, f.store.inserts)
}

func TestSubmit_UnknownRoom(t *testing.T) {
	f := newBookingFixture(t)
	f.rooms.On("GetByID", mock.Anything, uint64(99)).Return(model.Room{}, repository.ErrNotFound)
	in := submitInput("2024-06-03", "09:00", "10:00")
	in.RoomID = 99
	_, err := f.svc.Submit(context.Background(), 7, in)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmit_ConcurrentOverlappingRequests(t *testing.T) {
	f := newBookingFixture(t)
	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := "09:00"
			if i%2 == 1 {
				start = "09:30"
			}
			_, err := f.svc.Submit(context.Background(), 7, submitInput("2024-06-03", start, "10:30"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, availability.ErrConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func seedPending(f *bookingFixture, id uint64) {
	f.store.seed(model.BookingView{
		Booking: model.Booking{
			ID: id, BookingNumber: "BK-1", UserID: 7, RoomID: roomA.ID, Title: "Study group",
			Status: model.StatusPending,
			Start:  local("2024-06-03", "09:00"), End: local("2024-06-03", "10:00"),
		},
		RoomName: roomA.Name, UserEmail: "student@uni.test", UserFullName: "Student",
	})
}

func TestCancel_Idempotent(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)

	b, err := f.svc.Cancel(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, b.Status)

	b, err = f.svc.Cancel(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, b.Status)
	assert.Equal(t, model.StatusCancelled, f.store.status(1))
}

func TestCancel_NotOwner(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	_, err := f.svc.Cancel(context.Background(), 8, 1)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Equal(t, model.StatusPending, f.store.status(1))
}

func TestCancel_DecidedBookingRefused(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	f.notes.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishBookingDecided", mock.Anything, mock.Anything).Return(nil)
	_, err := f.svc.Decide(context.Background(), 1000, 1, model.StatusApproved, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.StatusApproved, f.store.status(1))
}

func TestCancel_Missing(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.svc.Cancel(context.Background(), 7, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDecide_ApproveNotifiesAndPublishes(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	f.notes.On("Create", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == 7 && n.Type == model.NotifySuccess && *n.BookingID == 1
	})).Return(nil).Once()
	f.events.On("PublishBookingDecided", mock.Anything, mock.MatchedBy(func(ev queue.BookingDecidedEvent) bool {
		return ev.BookingID == 1 && ev.Status == "approved" && ev.UserEmail == "student@uni.test" && ev.DecidedBy == 1000
	})).Return(nil).Once()

	res, err := f.svc.Decide(context.Background(), 1000, 1, model.StatusApproved, "")
	require.NoError(t, err)
	assert.True(t, res.Notified)
	assert.True(t, res.Published)
	assert.Equal(t, model.StatusApproved, res.Booking.Status)
	assert.Equal(t, model.StatusApproved, f.store.status(1))
	f.notes.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestDecide_RejectCarriesReason(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	var stored *model.Notification
	f.notes.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Notification) }).
		Return(nil)
	f.events.On("PublishBookingDecided", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Decide(context.Background(), 1000, 1, model.StatusRejected, " exam week ")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.NotifyError, stored.Type)
	assert.Contains(t, stored.Message, "Reason: exam week")
	assert.Contains(t, stored.Message, "2024-06-03 09:00-10:00")
}

func TestDecide_TerminalNeverReturnsToPending(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	f.notes.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishBookingDecided", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Decide(context.Background(), 1000, 1, model.StatusRejected, "")
	require.NoError(t, err)

	_, err = f.svc.Decide(context.Background(), 1000, 1, model.StatusApproved, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Decide(context.Background(), 1000, 1, model.StatusPending, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, model.StatusRejected, f.store.status(1))
}

func TestDecide_SideEffectFailuresAreNotFatal(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	f.notes.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	f.events.On("PublishBookingDecided", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := f.svc.Decide(context.Background(), 1000, 1, model.StatusApproved, "")
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.False(t, res.Published)
	assert.Equal(t, model.StatusApproved, f.store.status(1))
}

func TestDecide_Missing(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.svc.Decide(context.Background(), 1000, 5, model.StatusApproved, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCheckAvailability(t *testing.T) {
	f := newBookingFixture(t)
	f.store.seed(model.BookingView{Booking: model.Booking{
		ID: 3, RoomID: roomA.ID, Status: model.StatusPending,
		Start: local("2024-06-03", "13:00"), End: local("2024-06-03", "15:00"),
	}})
	ctx := context.Background()

	got, err := f.svc.CheckAvailability(ctx, roomA.ID, TimeInput{Date: "2024-06-03", StartTime: "15:00", EndTime: "17:00"})
	require.NoError(t, err)
	assert.True(t, got.Free)

	got, err = f.svc.CheckAvailability(ctx, roomA.ID, TimeInput{Date: "2024-06-03", StartTime: "14:00", EndTime: "16:00"})
	require.NoError(t, err)
	assert.False(t, got.Free)
	require.NotNil(t, got.Conflict)
	assert.Equal(t, uint64(3), got.Conflict.BookingID)

	got, err = f.svc.CheckAvailability(ctx, roomA.ID, TimeInput{Date: "2024-06-03", StartTime: "12:00", EndTime: "12:30"})
	require.NoError(t, err)
	assert.False(t, got.Free)
	require.NotNil(t, got.Reason)
	assert.Equal(t, availability.CodeBreakWindow, got.Reason.Code)
}

func TestCheckAvailability_LookupFailureIsNotFree(t *testing.T) {
	f := newBookingFixture(t)
	f.store.listErr = errors.New("timeout")
	_, err := f.svc.CheckAvailability(context.Background(), roomA.ID,
		TimeInput{Date: "2024-06-03", StartTime: "09:00", EndTime: "10:00"})
	assert.Error(t, err)
}

func TestRoomDay(t *testing.T) {
	f := newBookingFixture(t)
	f.store.seed(model.BookingView{Booking: model.Booking{
		ID: 3, RoomID: roomA.ID, Status: model.StatusApproved,
		Start: local("2024-06-03", "09:00"), End: local("2024-06-03", "11:00"),
	}})
	day, err := f.svc.RoomDay(context.Background(), roomA.ID, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", day.Date)
	require.Len(t, day.Taken, 1)
	require.Len(t, day.Free, 3)
	assert.True(t, day.Free[0].Start.Equal(local("2024-06-03", "08:00")))
	assert.True(t, day.Free[0].End.Equal(local("2024-06-03", "09:00")))
	assert.True(t, day.Free[1].Start.Equal(local("2024-06-03", "11:00")))
	assert.True(t, day.Free[1].End.Equal(local("2024-06-03", "12:00")))
	assert.True(t, day.Free[2].Start.Equal(local("2024-06-03", "13:00")))
	assert.True(t, day.Free[2].End.Equal(local("2024-06-03", "17:00")))

	_, err = f.svc.RoomDay(context.Background(), roomA.ID, "tomorrow")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListMine_Tabs(t *testing.T) {
	f := newBookingFixture(t)
	mk := func(id uint64, status model.BookingStatus, date, start, end string) {
		f.store.seed(model.BookingView{Booking: model.Booking{
			ID: id, UserID: 7, RoomID: roomA.ID, Status: status,
			Start: local(date, start), End: local(date, end),
		}})
	}
	mk(1, model.StatusApproved, "2024-05-20", "09:00", "10:00")
	mk(2, model.StatusPending, "2024-06-04", "09:00", "10:00")
	mk(3, model.StatusPending, "2024-06-03", "09:00", "10:00")
	mk(4, model.StatusCancelled, "2024-06-05", "09:00", "10:00")

	up, err := f.svc.ListMine(context.Background(), 7, TabUpcoming)
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, uint64(3), up[0].ID)
	assert.Equal(t, uint64(2), up[1].ID)

	past, err := f.svc.ListMine(context.Background(), 7, TabPast)
	require.NoError(t, err)
	require.Len(t, past, 2)
	statuses := map[uint64]model.BookingStatus{}
	for _, b := range past {
		statuses[b.ID] = b.Status
	}
	assert.Equal(t, model.StatusCompleted, statuses[1])
	assert.Equal(t, model.StatusCancelled, statuses[4])

	all, err := f.svc.ListMine(context.Background(), 7, TabAll)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListAll_DefaultsToPending(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	f.store.seed(model.BookingView{Booking: model.Booking{
		ID: 2, UserID: 7, RoomID: roomA.ID, Status: model.StatusRejected,
		Start: local("2024-06-03", "14:00"), End: local("2024-06-03", "15:00"),
	}})

	got, err := f.svc.ListAll(context.Background(), AdminFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ID)

	got, err = f.svc.ListAll(context.Background(), AdminFilter{Status: "all", From: "2024-06-03", To: "2024-06-03"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.svc.ListAll(context.Background(), AdminFilter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.ListAll(context.Background(), AdminFilter{From: "june"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGet_StudentsSeeOnlyTheirOwn(t *testing.T) {
	f := newBookingFixture(t)
	seedPending(f, 1)
	_, err := f.svc.Get(context.Background(), 8, false, 1)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	b, err := f.svc.Get(context.Background(), 8, true, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.ID)
}
