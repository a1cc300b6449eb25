package repository

import (
	"context"
	"time"

	"github.com/and161185/authsite/internal/model"
)

// SessionRepository stores server-side session rows.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *model.Session) error
	// Get loads a session by token.
	Get(ctx context.Context, token string) (*model.Session, error)
	// Touch moves the session expiry.
	Touch(ctx context.Context, token string, expiresAt time.Time) error
	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes all sessions with expires_at <= now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
