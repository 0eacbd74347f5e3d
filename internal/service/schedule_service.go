package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
)

// ScheduleService builds the day view: every booking still holding a
// room that day plus the hourly grid the timetable is drawn from.
type ScheduleService struct {
	bookings BookingStore
	policy   availability.Policy
	step     time.Duration
}

func NewScheduleService(bookings BookingStore, policy availability.Policy, step time.Duration) *ScheduleService {
	if step <= 0 {
		step = time.Hour
	}
	return &ScheduleService{bookings: bookings, policy: policy, step: step}
}

// Schedule is one day of the timetable.
type Schedule struct {
	Date     string
	Bookings []model.BookingView
	Grid     []availability.Cell
}

var (
	defaultOpen  = availability.MustClock("08:00")
	defaultClose = availability.MustClock("17:00")
)

// Day returns the schedule for date (YYYY-MM-DD in the campus zone),
// optionally restricted to one room.
func (s *ScheduleService) Day(ctx context.Context, date string, roomID uint64) (Schedule, error) {
	day, err := availability.ParseDate(strings.TrimSpace(date), locationOf(s.policy))
	if err != nil {
		return Schedule{}, invalid("date", "must be YYYY-MM-DD")
	}
	views, err := s.bookings.List(ctx, model.BookingFilter{
		OnlyBlocking: true,
		RoomID:       roomID,
		From:         day,
		To:           day.AddDate(0, 0, 1),
	})
	if err != nil {
		return Schedule{}, err
	}
	slots := make([]availability.Slot, 0, len(views))
	for _, v := range views {
		slots = append(slots, v.Slot())
	}
	openAt, closeAt := s.policy.OpenAt, s.policy.CloseAt
	if closeAt <= openAt {
		openAt, closeAt = defaultOpen, defaultClose
	}
	return Schedule{
		Date:     day.Format(time.DateOnly),
		Bookings: views,
		Grid:     availability.SlotGrid(day, openAt, closeAt, s.step, slots),
	}, nil
}
