package availability

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (iv Interval) Valid() bool { return iv.End.After(iv.Start) }

func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// Overlaps is the booking conflict predicate: a.Start < b.End && a.End > b.Start.
// Adjacent intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Request describes a booking the way users enter it: a local calendar date
// with a start time and either an end time or a duration.
type Request struct {
	Date     time.Time
	Start    Clock
	End      Clock
	Duration time.Duration
}

// Interval converts the request into absolute instants using loc.  When End
// is zero the end is derived from Duration.  Nothing is validated here; an
// empty or inverted result is rejected by IsBookable.
func (r Request) Interval(loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := r.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	start := r.Start.On(day)
	if r.End != 0 {
		return Interval{Start: start, End: r.End.On(day)}
	}
	return Interval{Start: start, End: start.Add(r.Duration)}
}
