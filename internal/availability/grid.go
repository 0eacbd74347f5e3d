package availability

import (
	"slices"
	"time"
)

// Cell is one row of the schedule grid.
type Cell struct {
	Label string
	Interval
	Slots []Slot
}

// SlotGrid splits [open, close) on day into step-wide cells and attaches
// every blocking slot overlapping each cell.  A booking spanning several
// cells appears in each of them.
func SlotGrid(day time.Time, open, close Clock, step time.Duration, slots []Slot) []Cell {
	if step <= 0 {
		step = time.Hour
	}
	d := midnight(day)
	end := close.On(d)
	var cells []Cell
	for cs := open.On(d); cs.Before(end); cs = cs.Add(step) {
		ce := cs.Add(step)
		if ce.After(end) {
			ce = end
		}
		cell := Cell{Label: cs.Format("15:04"), Interval: Interval{Start: cs, End: ce}}
		for _, s := range slots {
			if Blocks(s.Status) && Overlaps(cell.Interval, s.Interval) {
				cell.Slots = append(cell.Slots, s)
			}
		}
		cells = append(cells, cell)
	}
	return cells
}

// FreeWindows returns the gaps on day that are inside business hours, not
// in the break and not held by a blocking slot.  Gaps are in start order.
func FreeWindows(day time.Time, p Policy, slots []Slot) []Interval {
	window := p.Hours(day)
	busy := make([]Interval, 0, len(slots)+1)
	if p.hasBreak() {
		d := midnight(window.Start)
		busy = append(busy, Interval{Start: p.BreakStart.On(d), End: p.BreakEnd.On(d)})
	}
	for _, s := range slots {
		if Blocks(s.Status) && Overlaps(window, s.Interval) {
			busy = append(busy, s.Interval)
		}
	}
	slices.SortFunc(busy, func(a, b Interval) int { return a.Start.Compare(b.Start) })

	var free []Interval
	cursor := window.Start
	for _, b := range busy {
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(window.End) {
				end = window.End
			}
			if end.After(cursor) {
				free = append(free, Interval{Start: cursor, End: end})
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if window.End.After(cursor) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}
