// Package service contains the credential and session services behind sign-up, sign-in and sign-out.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/model"
	"github.com/and161185/authsite/internal/repository"
)

// AuthService defines the user-facing authentication operations.
type AuthService interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password string) (model.Issued, error)
	// SignIn authenticates and issues a session.
	SignIn(ctx context.Context, email, password string) (model.Issued, error)
	// SignOut revokes the session behind the cookie value, if any.
	SignOut(ctx context.Context, cookie string) error
	// Resolve maps a cookie value to a principal, refreshing its expiry.
	Resolve(ctx context.Context, cookie string) (model.Principal, model.Issued, bool)
}

type AuthServiceImpl struct {
	accounts repository.AccountRepository
	hasher   PasswordHasher
	authn    *Authenticator
	sessions *SessionManager
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(accounts repository.AccountRepository, hasher PasswordHasher, sessions *SessionManager) *AuthServiceImpl {
	return &AuthServiceImpl{
		accounts: accounts,
		hasher:   hasher,
		authn:    NewAuthenticator(accounts, hasher),
		sessions: sessions,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp hashes the password, inserts the account and issues its first session.
// A taken email is reported as errs.ErrAlreadyExists by the store's unique constraint.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (model.Issued, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return model.Issued{}, fmt.Errorf("%w: empty email/password", errs.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return model.Issued{}, fmt.Errorf("hash password: %w", err)
	}
	acc, err := s.accounts.Create(ctx, email, hash)
	if err != nil {
		return model.Issued{}, err
	}
	issued, err := s.sessions.Issue(ctx, acc)
	if err != nil {
		return model.Issued{}, fmt.Errorf("issue session: %w", err)
	}
	return issued, nil
}

// SignIn authenticates the credentials and issues a session.
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (model.Issued, error) {
	acc, err := s.authn.Authenticate(ctx, Credentials{Email: NormalizeEmail(email), Password: password})
	if err != nil {
		return model.Issued{}, err
	}
	issued, err := s.sessions.Issue(ctx, acc)
	if err != nil {
		return model.Issued{}, fmt.Errorf("issue session: %w", err)
	}
	return issued, nil
}

// SignOut revokes the session. Absent sessions are not an error.
func (s *AuthServiceImpl) SignOut(ctx context.Context, cookie string) error {
	if err := s.sessions.Revoke(ctx, cookie); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Resolve delegates to the session manager.
func (s *AuthServiceImpl) Resolve(ctx context.Context, cookie string) (model.Principal, model.Issued, bool) {
	return s.sessions.Resolve(ctx, cookie)
}
