package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
)

// BookingRepo stores bookings.  All instants are written and read in UTC.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// blockingClause excludes bookings that no longer hold their room.
const blockingClause = "b.status NOT IN ('cancelled','rejected')"

const bookingViewSelect = `SELECT b.id, b.booking_number, b.user_id, b.room_id, b.start_time, b.end_time,
       b.title, b.attendees, b.status, COALESCE(b.note, ''), b.advisor, COALESCE(b.decision_note, ''),
       b.decided_by, b.created_at, b.updated_at, r.name, r.building, u.full_name, u.email
FROM bookings b
JOIN rooms r ON r.id = b.room_id
JOIN users u ON u.id = b.user_id`

func scanBookingView(row interface{ Scan(...any) error }) (model.BookingView, error) {
	var (
		v         model.BookingView
		status    string
		decidedBy sql.NullInt64
	)
	err := row.Scan(&v.ID, &v.BookingNumber, &v.UserID, &v.RoomID, &v.Start, &v.End,
		&v.Title, &v.Attendees, &status, &v.Note, &v.Advisor, &v.DecisionNote,
		&decidedBy, &v.CreatedAt, &v.UpdatedAt, &v.RoomName, &v.Building, &v.UserFullName, &v.UserEmail)
	if err != nil {
		return model.BookingView{}, err
	}
	v.Status = model.NormalizeStatus(status)
	if decidedBy.Valid {
		id := uint64(decidedBy.Int64)
		v.DecidedBy = &id
	}
	return v, nil
}

// CreateIfFree inserts b as pending if check accepts the room's current
// bookings.  Inside one transaction it locks the room row, loads the
// blocking bookings overlapping window, calls check and inserts.
// Concurrent submissions for the same room queue on the lock, so the
// second one sees the first one's row.  check's error is returned
// unchanged and nothing is written.
func (r *BookingRepo) CreateIfFree(ctx context.Context, b *model.Booking, window availability.Interval,
	check func(room model.Room, existing []availability.Slot) error) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		room, err := lockRoomTx(ctx, tx, b.RoomID)
		if err != nil {
			return err
		}
		existing, err := listSlots(ctx, tx, b.RoomID, window)
		if err != nil {
			return err
		}
		if err := check(room, existing); err != nil {
			return err
		}
		b.Status = model.StatusPending
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (booking_number, user_id, room_id, start_time, end_time, title, attendees, status, note, advisor, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?)`,
			b.BookingNumber, b.UserID, b.RoomID, b.Start.UTC(), b.End.UTC(), b.Title, b.Attendees,
			string(b.Status), b.Note, b.Advisor, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
		if err != nil {
			if mysqlCode(err) == errNoReferenced {
				return ErrNotFound
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		b.ID = uint64(id)
		return nil
	})
}

// ListSlots returns the blocking bookings of a room overlapping window.
func (r *BookingRepo) ListSlots(ctx context.Context, roomID uint64, window availability.Interval) ([]availability.Slot, error) {
	return listSlots(ctx, r.db, roomID, window)
}

func listSlots(ctx context.Context, q querier, roomID uint64, window availability.Interval) ([]availability.Slot, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT b.id, b.room_id, b.status, b.title, b.start_time, b.end_time
		 FROM bookings b
		 WHERE b.room_id = ? AND `+blockingClause+` AND b.start_time < ? AND b.end_time > ?
		 ORDER BY b.start_time`,
		roomID, window.End.UTC(), window.Start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]availability.Slot, 0)
	for rows.Next() {
		var (
			s      availability.Slot
			status string
		)
		if err := rows.Scan(&s.BookingID, &s.RoomID, &status, &s.Title, &s.Start, &s.End); err != nil {
			return nil, err
		}
		s.Status = string(model.NormalizeStatus(status))
		out = append(out, s)
	}
	return out, rows.Err()
}

// BusyRoomIDs returns the rooms holding a blocking booking that overlaps iv.
func (r *BookingRepo) BusyRoomIDs(ctx context.Context, iv availability.Interval) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT b.room_id FROM bookings b
		 WHERE `+blockingClause+` AND b.start_time < ? AND b.end_time > ?`,
		iv.End.UTC(), iv.Start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.BookingView, error) {
	v, err := scanBookingView(r.db.QueryRowContext(ctx, bookingViewSelect+` WHERE b.id = ?`, id))
	return v, notFound(err)
}

// UpdateStatusFrom moves the booking from one status to another in a
// single conditional UPDATE.  It reports false when the booking does not
// exist or is no longer in from; the caller tells the two apart.
// decidedBy and note are recorded only when set.
func (r *BookingRepo) UpdateStatusFrom(ctx context.Context, id uint64, from, to model.BookingStatus,
	decidedBy *uint64, note string) (bool, error) {
	var by any
	if decidedBy != nil {
		by = *decidedBy
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings
		 SET status = ?, decided_by = COALESCE(?, decided_by), decision_note = COALESCE(NULLIF(?, ''), decision_note)
		 WHERE id = ? AND status = ?`,
		string(to), by, note, id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns the user's bookings, newest start first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingView, error) {
	return r.query(ctx, bookingViewSelect+` WHERE b.user_id = ? ORDER BY b.start_time DESC`, userID)
}

// List returns bookings matching f in start order.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.BookingView, error) {
	var (
		where []string
		args  []any
	)
	switch {
	case f.Status == model.StatusApproved:
		where = append(where, "b.status IN ('approved','confirmed')")
	case f.Status != "":
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if f.OnlyBlocking {
		where = append(where, blockingClause)
	}
	if f.RoomID != 0 {
		where = append(where, "b.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.UserID != 0 {
		where = append(where, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if !f.To.IsZero() {
		where = append(where, "b.start_time < ?")
		args = append(args, f.To.UTC())
	}
	if !f.From.IsZero() {
		where = append(where, "b.end_time > ?")
		args = append(args, f.From.UTC())
	}
	q := bookingViewSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.start_time, b.id"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	return r.query(ctx, q, args...)
}

func (r *BookingRepo) query(ctx context.Context, q string, args ...any) ([]model.BookingView, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BookingView, 0)
	for rows.Next() {
		v, err := scanBookingView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
