package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-booking/internal/model"
)

// NotificationRepo stores per-user notifications.
type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts n and fills in its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	var bookingID any
	if n.BookingID != nil {
		bookingID = *n.BookingID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, booking_id, title, message, type, is_read, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.UserID, bookingID, n.Title, n.Message, n.Type, n.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the newest notifications first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, booking_id, title, message, type, is_read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n         model.Notification
			bookingID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &bookingID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := uint64(bookingID.Int64)
			n.BookingID = &id
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n)
	return n, err
}

// MarkAllRead flags every unread notification of the user and returns how
// many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
