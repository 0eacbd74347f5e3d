package model

import "time"

// Account roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Account states.  Banned users keep their data but can neither log in
// nor submit bookings.
const (
	UserActive = "active"
	UserBanned = "banned"
)

// User represents an account together with its profile, as stored in the
// `users` table.  The json tags are omitted here because these structs are
// primarily used internally by the repository layer; handlers define
// separate response types.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address used to log in.
//	PasswordHash – bcrypt hashed password.
//	FullName     – display name shown on bookings and in the admin lists.
//	StudentID    – university student number; empty for staff accounts.
//	Role         – student or admin.
//	Phone        – optional contact number.
//	AvatarURL    – optional link to a profile picture.
//	Status       – active or banned.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	StudentID    string    // users.student_id
	Role         string    // users.role
	Phone        string    // users.phone
	AvatarURL    string    // users.avatar_url
	Status       string    // users.status
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Banned reports whether the account is locked out.
func (u User) Banned() bool { return u.Status == UserBanned }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
