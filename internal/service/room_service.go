package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

// RoomService manages rooms and answers room searches.
type RoomService struct {
	rooms    RoomStore
	bookings BookingStore
	policy   availability.Policy
	now      func() time.Time
}

func NewRoomService(rooms RoomStore, bookings BookingStore, policy availability.Policy) *RoomService {
	return &RoomService{rooms: rooms, bookings: bookings, policy: policy, now: time.Now}
}

// SetClock replaces time.Now, for tests.
func (s *RoomService) SetClock(now func() time.Time) { s.now = now }

// RoomQuery is the search form.  When a time is given only active rooms
// free for the whole interval are returned.
type RoomQuery struct {
	Q           string
	Facilities  []string
	MinCapacity int
	TimeInput
}

// Search lists rooms matching q.  A requested interval that breaks a
// calendar rule is returned as *availability.Reason rather than an empty
// list, so the client can say why nothing is free.
func (s *RoomService) Search(ctx context.Context, q RoomQuery) ([]model.Room, error) {
	f := repository.RoomFilter{Query: q.Q, Facilities: q.Facilities}
	if q.MinCapacity < 0 {
		return nil, invalid("min_capacity", "must not be negative")
	}
	f.MinCapacity = uint32(q.MinCapacity)
	if q.TimeInput.empty() {
		return s.rooms.List(ctx, f)
	}

	fe := fieldErrors{}
	iv := q.TimeInput.parse(locationOf(s.policy), fe)
	if err := fe.err(); err != nil {
		return nil, err
	}
	if err := availability.IsBookable(iv, s.policy, s.now().UTC()); err != nil {
		return nil, err
	}
	f.Status = model.RoomActive
	rooms, err := s.rooms.List(ctx, f)
	if err != nil {
		return nil, err
	}
	busy, err := s.bookings.BusyRoomIDs(ctx, iv)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	taken := make(map[uint64]bool, len(busy))
	for _, id := range busy {
		taken[id] = true
	}
	out := make([]model.Room, 0, len(rooms))
	for _, rm := range rooms {
		if !taken[rm.ID] {
			out = append(out, rm)
		}
	}
	return out, nil
}

func (s *RoomService) Get(ctx context.Context, id uint64) (model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// MaxCapacity bounds room capacities and booking head counts.
const MaxCapacity = 10000

// RoomInput is the admin room form.
type RoomInput struct {
	Name       string
	Building   string
	Capacity   int
	Facilities []string
	Status     string
	ImageURL   string
}

func (in RoomInput) toRoom() (model.Room, error) {
	fe := fieldErrors{}
	rm := model.Room{
		Name:       strings.TrimSpace(in.Name),
		Building:   strings.TrimSpace(in.Building),
		Facilities: in.Facilities,
		Status:     strings.ToLower(strings.TrimSpace(in.Status)),
		ImageURL:   strings.TrimSpace(in.ImageURL),
	}
	if rm.Name == "" {
		fe.add("name", "required")
	}
	switch {
	case in.Capacity < 1:
		fe.add("capacity", "must be at least 1")
	case in.Capacity > MaxCapacity:
		fe.add("capacity", fmt.Sprintf("must be at most %d", MaxCapacity))
	default:
		rm.Capacity = uint32(in.Capacity)
	}
	switch rm.Status {
	case "":
		rm.Status = model.RoomActive
	case model.RoomActive, model.RoomMaintenance:
	default:
		fe.add("status", "must be active or maintenance")
	}
	if rm.Facilities == nil {
		rm.Facilities = []string{}
	}
	return rm, fe.err()
}

func (s *RoomService) Create(ctx context.Context, in RoomInput) (model.Room, error) {
	rm, err := in.toRoom()
	if err != nil {
		return model.Room{}, err
	}
	if err := s.rooms.Create(ctx, &rm); err != nil {
		return model.Room{}, err
	}
	return rm, nil
}

func (s *RoomService) Update(ctx context.Context, id uint64, in RoomInput) (model.Room, error) {
	rm, err := in.toRoom()
	if err != nil {
		return model.Room{}, err
	}
	rm.ID = id
	if err := s.rooms.Update(ctx, &rm); err != nil {
		return model.Room{}, err
	}
	return s.rooms.GetByID(ctx, id)
}

func (s *RoomService) Delete(ctx context.Context, id uint64) error {
	return s.rooms.Delete(ctx, id)
}
