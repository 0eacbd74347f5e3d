package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// ReportRepo runs the aggregate queries behind the admin dashboard.
// Grouping by local day or hour is left to the caller because the
// database stores UTC and may lack time zone tables.
type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// StatusCounts counts bookings per canonical status.
func (r *ReportRepo) StatusCounts(ctx context.Context) (map[model.BookingStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[model.BookingStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.NormalizeStatus(status)] += n
	}
	return out, rows.Err()
}

func (r *ReportRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// StartTimes returns the start instant of every booking starting in
// [from, to), cancelled ones excluded.
func (r *ReportRepo) StartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT start_time FROM bookings WHERE start_time >= ? AND start_time < ? AND status <> 'cancelled'`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TopRooms ranks rooms by bookings starting in [from, to).
func (r *ReportRepo) TopRooms(ctx context.Context, from, to time.Time, limit int) ([]model.RoomUsage, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.name, COUNT(b.id) AS n
		 FROM bookings b JOIN rooms r ON r.id = b.room_id
		 WHERE b.start_time >= ? AND b.start_time < ? AND b.status <> 'cancelled'
		 GROUP BY r.id, r.name
		 ORDER BY n DESC, r.name
		 LIMIT ?`,
		from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomUsage, 0)
	for rows.Next() {
		var u model.RoomUsage
		if err := rows.Scan(&u.RoomID, &u.RoomName, &u.Count); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
