package availability

import (
	"errors"
	"fmt"
	"time"
)

// ErrConflict is wrapped by every *ConflictError.
var ErrConflict = errors.New("time slot already booked")

// Slot is an existing booking as seen by the checker.
type Slot struct {
	BookingID uint64
	RoomID    uint64
	Status    string
	Title     string
	Interval
}

// Blocks reports whether a booking in this status occupies its room.
// Cancelled and rejected bookings free the slot; every other status,
// including unknown legacy values, keeps it.
func Blocks(status string) bool {
	return status != "cancelled" && status != "rejected"
}

// ConflictError names the booking that occupies the requested interval.
type ConflictError struct {
	Slot Slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: booking %d holds %s-%s", ErrConflict, e.Slot.BookingID,
		e.Slot.Start.Format(time.RFC3339), e.Slot.End.Format(time.RFC3339))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// FindConflict returns the first blocking slot overlapping iv.
func FindConflict(iv Interval, existing []Slot) (Slot, bool) {
	for _, s := range existing {
		if !Blocks(s.Status) {
			continue
		}
		if Overlaps(iv, s.Interval) {
			return s, true
		}
	}
	return Slot{}, false
}

// Check runs IsBookable and then FindConflict.  It returns nil, a *Reason,
// or a *ConflictError.
func Check(iv Interval, p Policy, now time.Time, existing []Slot) error {
	if err := IsBookable(iv, p, now); err != nil {
		return err
	}
	if s, ok := FindConflict(iv, existing); ok {
		return &ConflictError{Slot: s}
	}
	return nil
}
