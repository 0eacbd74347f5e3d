package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
)

// ReportService computes the admin dashboard.
type ReportService struct {
	store ReportStore
	loc   *time.Location
	now   func() time.Time
}

func NewReportService(store ReportStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, loc: loc, now: time.Now}
}

// SetClock replaces time.Now, for tests.
func (s *ReportService) SetClock(now func() time.Time) { s.now = now }

const maxReportDays = 366

// Summary covers the inclusive local dates from..to.  Both default so that
// the range is the last seven days ending today.
func (s *ReportService) Summary(ctx context.Context, from, to string) (model.ReportSummary, error) {
	start, end, err := s.reportRange(from, to)
	if err != nil {
		return model.ReportSummary{}, err
	}

	counts, err := s.store.StatusCounts(ctx)
	if err != nil {
		return model.ReportSummary{}, fmt.Errorf("status counts: %w", err)
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return model.ReportSummary{}, fmt.Errorf("count users: %w", err)
	}
	starts, err := s.store.StartTimes(ctx, start, end)
	if err != nil {
		return model.ReportSummary{}, fmt.Errorf("start times: %w", err)
	}
	top, err := s.store.TopRooms(ctx, start, end, 5)
	if err != nil {
		return model.ReportSummary{}, fmt.Errorf("top rooms: %w", err)
	}

	out := model.ReportSummary{
		PendingCount:  counts[model.StatusPending],
		ApprovedCount: counts[model.StatusApproved],
		TotalUsers:    users,
		TopRooms:      top,
	}

	perDay := make(map[string]int)
	var hours [24]int
	for _, t := range starts {
		lt := t.In(s.loc)
		perDay[lt.Format(time.DateOnly)]++
		hours[lt.Hour()]++
	}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		out.Daily = append(out.Daily, model.DailyCount{Day: key, Count: perDay[key]})
	}
	// ties go to the earliest hour
	best := -1
	for h, n := range hours {
		if n > 0 && (best < 0 || n > hours[best]) {
			best = h
		}
	}
	if best >= 0 {
		out.PeakHour = &best
	}
	return out, nil
}

func (s *ReportService) reportRange(from, to string) (time.Time, time.Time, error) {
	fe := fieldErrors{}
	n := s.now().In(s.loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)

	last := today
	if to = strings.TrimSpace(to); to != "" {
		d, err := availability.ParseDate(to, s.loc)
		if err != nil {
			fe.add("to", "must be YYYY-MM-DD")
		}
		last = d
	}
	first := last.AddDate(0, 0, -6)
	if from = strings.TrimSpace(from); from != "" {
		d, err := availability.ParseDate(from, s.loc)
		if err != nil {
			fe.add("from", "must be YYYY-MM-DD")
		}
		first = d
	}
	if err := fe.err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := last.AddDate(0, 0, 1)
	if !end.After(first) {
		return time.Time{}, time.Time{}, invalid("from", "must not be after to")
	}
	if end.Sub(first) > maxReportDays*24*time.Hour {
		return time.Time{}, time.Time{}, invalid("from", fmt.Sprintf("range is limited to %d days", maxReportDays))
	}
	return first, end, nil
}
