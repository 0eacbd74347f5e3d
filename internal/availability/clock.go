package availability

import (
	"fmt"
	"time"
)

// Clock is a time of day expressed in minutes after local midnight.
type Clock int

// ParseClock parses "HH:MM" (24h).  "24:00" is accepted as end of day.
func ParseClock(s string) (Clock, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for constants; it panics on bad input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Duration returns the offset of c from midnight.
func (c Clock) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

// On returns the instant of c on the calendar date of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	return midnight(day).Add(c.Duration())
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a "YYYY-MM-DD" calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
