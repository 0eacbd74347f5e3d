package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
)

// BookingConfig carries the room booking policy.  Every restriction can be
// switched off through the environment: an empty BOOKING_OPEN_AT disables
// the business-hours window, an empty BOOKING_BREAK disables the lunch
// break and an empty BOOKING_CLOSED_DAYS keeps weekends open.
type BookingConfig struct {
	Policy availability.Policy
	// GridStep is the slot width of the schedule grid.
	GridStep time.Duration
}

// LoadBookingConfig builds the booking policy from the environment.
//
//	BOOKING_TIMEZONE      IANA zone used to interpret local dates (default Asia/Bangkok)
//	BOOKING_OPEN_AT       opening time of day, HH:MM (default 08:00)
//	BOOKING_CLOSE_AT      closing time of day, HH:MM (default 17:00)
//	BOOKING_BREAK         break window, HH:MM-HH:MM (default 12:00-13:00)
//	BOOKING_CLOSED_DAYS   comma separated weekdays (default sat,sun)
//	BOOKING_MAX_ADVANCE   how far ahead bookings are accepted (default 2160h, 90 days)
//	BOOKING_MIN_DURATION  shortest accepted booking (default 30m)
func LoadBookingConfig() (BookingConfig, error) {
	loc, err := time.LoadLocation(envStr("BOOKING_TIMEZONE", "Asia/Bangkok"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("booking timezone: %w", err)
	}
	p := availability.Policy{
		Location:    loc,
		MaxAdvance:  envDur("BOOKING_MAX_ADVANCE", 90*24*time.Hour),
		MinDuration: envDur("BOOKING_MIN_DURATION", 30*time.Minute),
	}

	if open := envStrAllowEmpty("BOOKING_OPEN_AT", "08:00"); open != "" {
		if p.OpenAt, err = availability.ParseClock(open); err != nil {
			return BookingConfig{}, fmt.Errorf("BOOKING_OPEN_AT: %w", err)
		}
		if p.CloseAt, err = availability.ParseClock(envStr("BOOKING_CLOSE_AT", "17:00")); err != nil {
			return BookingConfig{}, fmt.Errorf("BOOKING_CLOSE_AT: %w", err)
		}
	}
	if br := envStrAllowEmpty("BOOKING_BREAK", "12:00-13:00"); br != "" {
		from, to, ok := strings.Cut(br, "-")
		if !ok {
			return BookingConfig{}, fmt.Errorf("BOOKING_BREAK: expected HH:MM-HH:MM, got %q", br)
		}
		if p.BreakStart, err = availability.ParseClock(strings.TrimSpace(from)); err != nil {
			return BookingConfig{}, fmt.Errorf("BOOKING_BREAK: %w", err)
		}
		if p.BreakEnd, err = availability.ParseClock(strings.TrimSpace(to)); err != nil {
			return BookingConfig{}, fmt.Errorf("BOOKING_BREAK: %w", err)
		}
	}
	days, err := parseWeekdays(envStrAllowEmpty("BOOKING_CLOSED_DAYS", "sat,sun"))
	if err != nil {
		return BookingConfig{}, err
	}
	p.ClosedWeekdays = days

	return BookingConfig{
		Policy:   p,
		GridStep: envDur("BOOKING_GRID_STEP", time.Hour),
	}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if len(p) > 3 {
			p = p[:3]
		}
		d, ok := weekdayNames[p]
		if !ok {
			return nil, fmt.Errorf("BOOKING_CLOSED_DAYS: unknown weekday %q", p)
		}
		out = append(out, d)
	}
	return out, nil
}
