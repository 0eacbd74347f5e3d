package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BookingLog appends one human readable line per event to
// <dir>/booking.log.
type BookingLog struct {
	dir string
	mu  sync.Mutex
}

func NewBookingLog(dir string) *BookingLog {
	if dir == "" {
		dir = "logs"
	}
	return &BookingLog{dir: dir}
}

// Path is the file the log writes to.
func (l *BookingLog) Path() string { return filepath.Join(l.dir, "booking.log") }

func (l *BookingLog) Append(ev BookingDecidedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev BookingDecidedEvent) string {
	line := fmt.Sprintf("[%s] Booking %s | booking_id=%d | ref=%s | user_id=%d | room=%q | building=%q | title=%q | from=%s | to=%s | by=%d",
		ev.DecidedAt, ev.Status, ev.BookingID, ev.BookingNumber, ev.UserID, ev.RoomName, ev.Building, ev.Title,
		ev.StartsAt, ev.EndsAt, ev.DecidedBy)
	if ev.Reason != "" {
		line += fmt.Sprintf(" | reason=%q", ev.Reason)
	}
	return line + "\n"
}
