package availability

import (
	"fmt"
	"slices"
	"time"
)

// Code identifies why an interval is not bookable.
type Code string

const (
	CodeInvalidRange Code = "invalid_range"
	CodeTooShort     Code = "too_short"
	CodeInPast       Code = "in_past"
	CodeTooFarAhead  Code = "too_far_ahead"
	CodeClosedDay    Code = "closed_day"
	CodeOutsideHours Code = "outside_hours"
	CodeBreakWindow  Code = "break_window"
)

// Reason is returned by IsBookable when a rule rejects the interval.
type Reason struct {
	Code    Code
	Message string
}

func (r *Reason) Error() string { return r.Message }

func reject(code Code, format string, args ...any) *Reason {
	return &Reason{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Policy is the set of calendar rules applied to every booking.  A zero
// field disables its rule, so the zero Policy accepts any valid interval.
//
// Business hours apply when CloseAt > OpenAt and the break applies when
// BreakEnd > BreakStart.  Times of day are read in Location (UTC if nil).
type Policy struct {
	Location       *time.Location
	OpenAt         Clock
	CloseAt        Clock
	BreakStart     Clock
	BreakEnd       Clock
	ClosedWeekdays []time.Weekday
	MaxAdvance     time.Duration
	MinDuration    time.Duration
}

func (p Policy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p Policy) hasHours() bool { return p.CloseAt > p.OpenAt }
func (p Policy) hasBreak() bool { return p.BreakEnd > p.BreakStart }

// Hours returns the bookable window of day.  Without business hours the
// window is the whole local day.
func (p Policy) Hours(day time.Time) Interval {
	d := midnight(day.In(p.loc()))
	if !p.hasHours() {
		return Interval{Start: d, End: d.AddDate(0, 0, 1)}
	}
	return Interval{Start: p.OpenAt.On(d), End: p.CloseAt.On(d)}
}

// IsBookable applies the policy to iv.  A zero now skips the in_past and
// too_far_ahead rules.  The first failing rule is reported.
func IsBookable(iv Interval, p Policy, now time.Time) error {
	if !iv.Valid() {
		return reject(CodeInvalidRange, "end time must be after start time")
	}
	if p.MinDuration > 0 && iv.Duration() < p.MinDuration {
		return reject(CodeTooShort, "booking must last at least %s", p.MinDuration)
	}
	if !now.IsZero() {
		if iv.Start.Before(now) {
			return reject(CodeInPast, "cannot book a time in the past")
		}
		if p.MaxAdvance > 0 && iv.Start.After(now.Add(p.MaxAdvance)) {
			return reject(CodeTooFarAhead, "bookings open at most %s in advance", p.MaxAdvance)
		}
	}

	start := iv.Start.In(p.loc())
	if slices.Contains(p.ClosedWeekdays, start.Weekday()) {
		return reject(CodeClosedDay, "rooms are closed on %s", start.Weekday())
	}

	// minutes from the local midnight of the start day; a booking crossing
	// midnight has endMin > 24h and fails the hours rule below
	day := midnight(start)
	startMin := Clock(start.Sub(day) / time.Minute)
	endMin := Clock(iv.End.Sub(day) / time.Minute)
	if p.hasHours() && (startMin < p.OpenAt || endMin > p.CloseAt) {
		return reject(CodeOutsideHours, "bookings must fall between %s and %s", p.OpenAt, p.CloseAt)
	}
	if p.hasBreak() && startMin < p.BreakEnd && endMin > p.BreakStart {
		return reject(CodeBreakWindow, "rooms are not bookable between %s and %s", p.BreakStart, p.BreakEnd)
	}
	return nil
}
