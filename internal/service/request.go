package service

import (
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
)

// TimeInput is how clients express an interval: a local date, a start
// time and either an end time or a duration in minutes.
type TimeInput struct {
	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int
}

func (in TimeInput) empty() bool {
	return strings.TrimSpace(in.Date) == "" && strings.TrimSpace(in.StartTime) == "" &&
		strings.TrimSpace(in.EndTime) == "" && in.DurationMinutes == 0
}

// parse converts the input into an interval in loc, recording problems in
// fe.  The interval is only meaningful when fe stays empty.
func (in TimeInput) parse(loc *time.Location, fe fieldErrors) availability.Interval {
	var req availability.Request
	before := len(fe)
	day, err := availability.ParseDate(strings.TrimSpace(in.Date), loc)
	if err != nil {
		fe.add("date", "must be YYYY-MM-DD")
	}
	req.Date = day
	if req.Start, err = availability.ParseClock(strings.TrimSpace(in.StartTime)); err != nil {
		fe.add("start_time", "must be HH:MM")
	}
	switch {
	case strings.TrimSpace(in.EndTime) != "":
		if req.End, err = availability.ParseClock(strings.TrimSpace(in.EndTime)); err != nil {
			fe.add("end_time", "must be HH:MM")
		}
	case in.DurationMinutes > 0:
		req.Duration = time.Duration(in.DurationMinutes) * time.Minute
	default:
		fe.add("end_time", "end_time or duration_minutes is required")
	}
	if len(fe) > before {
		return availability.Interval{}
	}
	iv := req.Interval(loc)
	if !iv.Valid() {
		fe.add("end_time", "must be after start time")
	}
	return iv
}

// dayWindow is the local day containing iv.Start, stretched to cover iv.
func dayWindow(iv availability.Interval, loc *time.Location) availability.Interval {
	s := iv.Start.In(loc)
	start := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	if iv.End.After(end) {
		end = iv.End
	}
	return availability.Interval{Start: start, End: end}
}

func locationOf(p availability.Policy) *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
