package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/model"
)

// SessionRepo implements SessionRepository using PostgreSQL.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `
INSERT INTO sessions (token, account_id, auth_hash, expires_at)
VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Pool.Exec(ctx, q, s.Token, s.AccountID, s.AuthHash, s.ExpiresAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get selects a session by token.
func (r *SessionRepo) Get(ctx context.Context, token string) (*model.Session, error) {
	const q = `
SELECT token, account_id, auth_hash, expires_at, created_at
FROM sessions WHERE token=$1`
	var s model.Session
	err := r.db.Pool.QueryRow(ctx, q, token).Scan(&s.Token, &s.AccountID, &s.AuthHash, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

// Touch moves expires_at of an existing session.
func (r *SessionRepo) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	const q = `UPDATE sessions SET expires_at=$2 WHERE token=$1`
	tag, err := r.db.Pool.Exec(ctx, q, token, expiresAt)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a session row; a missing row is fine.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	const q = `DELETE FROM sessions WHERE token=$1`
	if _, err := r.db.Pool.Exec(ctx, q, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is not after now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= $1`
	tag, err := r.db.Pool.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
