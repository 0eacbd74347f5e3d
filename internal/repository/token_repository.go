package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TokenRepo keeps the refresh_tokens table.  Raw tokens never reach it,
// only their hex SHA-256.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

type refreshRow struct {
	userID  uint64
	expires time.Time
	revoked sql.NullTime
}

func (t refreshRow) live(now time.Time) bool {
	return !t.revoked.Valid && now.Before(t.expires)
}

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC()); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// ValidateRefresh resolves a hash to its user.  Unknown, revoked and
// expired tokens all come back as ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var t refreshRow
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.userID, &t.expires, &t.revoked)
	if err != nil {
		return 0, notFound(err)
	}
	if !t.live(now) {
		return 0, ErrNotFound
	}
	return t.userID, nil
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, "token_hash=?", tokenHash)
}

// RevokeAllForUser ends every session of a user (logout everywhere, bans).
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.revoke(ctx, "user_id=?", userID)
}

// revoke stamps matching live rows.  Rows already revoked keep their
// original timestamp.
func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE "+where+" AND revoked_at IS NULL", arg)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
