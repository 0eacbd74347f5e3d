package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
)

// fakeBookings is an in-memory BookingStore.  CreateIfFree holds a mutex
// for the whole check-then-insert, like the room row lock in MySQL.
type fakeBookings struct {
	mu      sync.Mutex
	rooms   map[uint64]model.Room
	rows    []model.BookingView
	nextID  uint64
	listErr error
	inserts int
}

func newFakeBookings(rooms ...model.Room) *fakeBookings {
	f := &fakeBookings{rooms: map[uint64]model.Room{}, nextID: 100}
	for _, r := range rooms {
		f.rooms[r.ID] = r
	}
	return f
}

func (f *fakeBookings) seed(b model.BookingView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, b)
}

func (f *fakeBookings) slots(roomID uint64, window availability.Interval) []availability.Slot {
	var out []availability.Slot
	for _, b := range f.rows {
		if b.RoomID == roomID && b.Status.Blocks() && availability.Overlaps(b.Interval(), window) {
			out = append(out, b.Slot())
		}
	}
	return out
}

func (f *fakeBookings) CreateIfFree(_ context.Context, b *model.Booking, window availability.Interval,
	check func(model.Room, []availability.Slot) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[b.RoomID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := check(room, f.slots(b.RoomID, window)); err != nil {
		return err
	}
	f.nextID++
	b.ID = f.nextID
	b.Status = model.StatusPending
	f.rows = append(f.rows, model.BookingView{Booking: *b, RoomName: room.Name})
	f.inserts++
	return nil
}

func (f *fakeBookings) ListSlots(_ context.Context, roomID uint64, window availability.Interval) ([]availability.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.slots(roomID, window), nil
}

func (f *fakeBookings) BusyRoomIDs(_ context.Context, iv availability.Interval) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []uint64
	for _, b := range f.rows {
		if b.Status.Blocks() && availability.Overlaps(b.Interval(), iv) && !slices.Contains(ids, b.RoomID) {
			ids = append(ids, b.RoomID)
		}
	}
	return ids, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uint64) (model.BookingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.ID == id {
			return b, nil
		}
	}
	return model.BookingView{}, repository.ErrNotFound
}

func (f *fakeBookings) UpdateStatusFrom(_ context.Context, id uint64, from, to model.BookingStatus, decidedBy *uint64, note string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].Status == from {
			f.rows[i].Status = to
			if decidedBy != nil {
				f.rows[i].DecidedBy = decidedBy
			}
			if note != "" {
				f.rows[i].DecisionNote = note
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID uint64) ([]model.BookingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BookingView
	for _, b := range f.rows {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.BookingView) int { return b.Start.Compare(a.Start) })
	return out, nil
}

func (f *fakeBookings) List(_ context.Context, q model.BookingFilter) ([]model.BookingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BookingView
	for _, b := range f.rows {
		switch {
		case q.Status != "" && b.Status != q.Status,
			q.OnlyBlocking && !b.Status.Blocks(),
			q.RoomID != 0 && b.RoomID != q.RoomID,
			q.UserID != 0 && b.UserID != q.UserID,
			!q.To.IsZero() && !b.Start.Before(q.To),
			!q.From.IsZero() && !b.End.After(q.From):
			continue
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b model.BookingView) int { return a.Start.Compare(b.Start) })
	return out, nil
}

func (f *fakeBookings) status(id uint64) model.BookingStatus {
	b, _ := f.GetByID(context.Background(), id)
	return b.Status
}

type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Room), args.Error(1)
}

func (m *MockRoomStore) List(ctx context.Context, f repository.RoomFilter) ([]model.Room, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *MockRoomStore) Create(ctx context.Context, rm *model.Room) error {
	args := m.Called(ctx, rm)
	return args.Error(0)
}

func (m *MockRoomStore) Update(ctx context.Context, rm *model.Room) error {
	args := m.Called(ctx, rm)
	return args.Error(0)
}

func (m *MockRoomStore) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, id uint64, p repository.ProfileUpdate) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}

func (m *MockUserStore) AdminUpdate(ctx context.Context, id uint64, u repository.AdminUpdate) error {
	args := m.Called(ctx, id, u)
	return args.Error(0)
}

func (m *MockUserStore) ToggleBan(ctx context.Context, id uint64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context, q string, limit, offset int) ([]model.User, error) {
	args := m.Called(ctx, q, limit, offset)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserStore) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingDecided(ctx context.Context, ev queue.BookingDecidedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockTokenRevoker struct {
	mock.Mock
}

func (m *MockTokenRevoker) RevokeAllForUser(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) StatusCounts(ctx context.Context) (map[model.BookingStatus]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[model.BookingStatus]int), args.Error(1)
}

func (m *MockReportStore) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReportStore) StartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockReportStore) TopRooms(ctx context.Context, from, to time.Time, limit int) ([]model.RoomUsage, error) {
	args := m.Called(ctx, from, to, limit)
	return args.Get(0).([]model.RoomUsage), args.Error(1)
}
