package service

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/authsite/internal/crypto"
	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/model"
	"github.com/and161185/authsite/internal/repository"
)

const sessionTokenBytes = 32

// SessionManager issues, resolves and revokes server-side sessions.
//
// The cookie carries an HS256-signed token id; everything else lives in the
// sessions table. A session stays valid only while its auth hash equals the
// account's current password hash, so changing a password drops every session.
type SessionManager struct {
	sessions   repository.SessionRepository
	accounts   repository.AccountRepository
	signKey    []byte
	inactivity time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// NewSessionManager constructs a SessionManager. signKey must be non-empty and inactivity positive.
func NewSessionManager(sessions repository.SessionRepository, accounts repository.AccountRepository, signKey []byte, inactivity time.Duration, log *zap.Logger) (*SessionManager, error) {
	if len(signKey) == 0 {
		return nil, fmt.Errorf("%w: empty session signing key", errs.ErrInvalidConfig)
	}
	if inactivity <= 0 {
		return nil, fmt.Errorf("%w: non-positive session inactivity window", errs.ErrInvalidConfig)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		sessions:   sessions,
		accounts:   accounts,
		signKey:    signKey,
		inactivity: inactivity,
		now:        time.Now,
		log:        log,
	}, nil
}

// Issue creates a session bound to acc and returns the signed cookie value.
func (m *SessionManager) Issue(ctx context.Context, acc *model.Account) (model.Issued, error) {
	raw, err := pkgcrypto.RandBytes(sessionTokenBytes)
	if err != nil {
		return model.Issued{}, fmt.Errorf("session token: %w", err)
	}
	now := m.now()
	s := &model.Session{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		AccountID: acc.ID,
		AuthHash:  []byte(acc.PasswordHash),
		ExpiresAt: now.Add(m.inactivity),
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		return model.Issued{}, err
	}
	signed, err := m.sign(s.Token, now)
	if err != nil {
		return model.Issued{}, err
	}
	return model.Issued{Cookie: signed, ExpiresAt: s.ExpiresAt}, nil
}

// Resolve maps a cookie value to its principal and slides the session expiry.
// Every failure (forged, expired, orphaned, stale password, storage error) is reported as ok=false.
func (m *SessionManager) Resolve(ctx context.Context, signed string) (model.Principal, model.Issued, bool) {
	token, err := m.parse(signed)
	if err != nil {
		return model.Principal{}, model.Issued{}, false
	}

	s, err := m.sessions.Get(ctx, token)
	if err != nil {
		m.logStorage("load session", err)
		return model.Principal{}, model.Issued{}, false
	}

	now := m.now()
	if !s.ExpiresAt.After(now) {
		return model.Principal{}, model.Issued{}, false
	}

	acc, err := m.accounts.GetByID(ctx, s.AccountID)
	if err != nil {
		m.logStorage("load session account", err)
		return model.Principal{}, model.Issued{}, false
	}
	if subtle.ConstantTimeCompare(s.AuthHash, []byte(acc.PasswordHash)) != 1 {
		return model.Principal{}, model.Issued{}, false
	}

	exp := now.Add(m.inactivity)
	if err := m.sessions.Touch(ctx, token, exp); err != nil {
		m.logStorage("touch session", err)
		return model.Principal{}, model.Issued{}, false
	}

	return model.Principal{AccountID: acc.ID, Email: acc.Email}, model.Issued{Cookie: signed, ExpiresAt: exp}, true
}

// Revoke deletes the session behind signed. Unknown or forged values are a no-op.
func (m *SessionManager) Revoke(ctx context.Context, signed string) error {
	token, err := m.parse(signed)
	if err != nil {
		return nil
	}
	return m.sessions.Delete(ctx, token)
}

func (m *SessionManager) logStorage(op string, err error) {
	if errors.Is(err, errs.ErrNotFound) {
		return
	}
	m.log.Error("session storage", zap.String("op", op), zap.Error(err))
}

// sign wraps the session token into an HS256 JWT.
func (m *SessionManager) sign(token string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       token,
		IssuedAt: jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// parse verifies the signature and returns the session token.
func (m *SessionManager) parse(signed string) (string, error) {
	if signed == "" {
		return "", errs.ErrNotFound
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return m.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errs.ErrNotFound
	}
	return claims.ID, nil
}
