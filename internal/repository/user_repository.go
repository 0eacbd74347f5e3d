package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser is the registration payload.
type NewUser struct {
	Email     string
	Password  string
	FullName  string
	StudentID string
	Role      string
}

const userColumns = "id,email,password_hash,full_name,student_id,role,phone,avatar_url,status,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.StudentID, &u.Role,
		&u.Phone, &u.AvatarURL, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// NormalizeEmail lower-cases and trims an address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, student_id, role, status) VALUES (?,?,?,?,?,?)",
		NormalizeEmail(nu.Email), hash, strings.TrimSpace(nu.FullName), strings.TrimSpace(nu.StudentID), nu.Role, model.UserActive)
	if err != nil {
		if mysqlCode(err) == errDupEntry {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email)))
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err)
}

// ProfileUpdate holds the fields a user may change on their own profile.
type ProfileUpdate struct {
	FullName  string
	Phone     string
	AvatarURL string
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	return r.execOne(ctx,
		"UPDATE users SET full_name=?, phone=?, avatar_url=? WHERE id=?",
		strings.TrimSpace(p.FullName), strings.TrimSpace(p.Phone), strings.TrimSpace(p.AvatarURL), id)
}

// AdminUpdate holds the fields an administrator may change.
type AdminUpdate struct {
	FullName  string
	StudentID string
	Status    string
}

func (r *UserRepo) AdminUpdate(ctx context.Context, id uint64, u AdminUpdate) error {
	return r.execOne(ctx,
		"UPDATE users SET full_name=?, student_id=?, status=? WHERE id=?",
		strings.TrimSpace(u.FullName), strings.TrimSpace(u.StudentID), u.Status, id)
}

// ToggleBan flips the account between active and banned and returns the
// new status.  Admin accounts cannot be banned.
func (r *UserRepo) ToggleBan(ctx context.Context, id uint64) (string, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status = IF(status='banned','active','banned') WHERE id=? AND role<>?",
		id, model.RoleAdmin)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		if u.Role == model.RoleAdmin {
			return "", ErrForbidden
		}
		return "", ErrNotFound
	}
	var status string
	if err := r.DB.QueryRowContext(ctx, "SELECT status FROM users WHERE id=?", id).Scan(&status); err != nil {
		return "", notFound(err)
	}
	return status, nil
}

// List returns users ordered by name.  q filters on name, email or
// student id.
func (r *UserRepo) List(ctx context.Context, q string, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := "SELECT " + userColumns + " FROM users"
	args := []any{}
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + q + "%"
		query += " WHERE full_name LIKE ? OR email LIKE ? OR student_id LIKE ?"
		args = append(args, like, like, like)
	}
	query += " ORDER BY full_name, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes the account.  Bookings, tokens and notifications go with
// it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	err := r.execOne(ctx, "DELETE FROM users WHERE id=?", id)
	if mysqlCode(err) == errRowIsParent {
		return ErrConflict
	}
	return err
}

// execOne runs a single-row statement and reports ErrNotFound when no
// row matched.
func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
