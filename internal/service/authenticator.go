package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/model"
	"github.com/and161185/authsite/internal/repository"
)

// PasswordHasher hashes and verifies passwords off the request goroutine.
// Implemented by *crypto.Hasher.
type PasswordHasher interface {
	// Hash derives a self-describing hash of password.
	Hash(ctx context.Context, password []byte) (string, error)
	// Verify reports whether password matches encoded; malformed hashes are a mismatch.
	Verify(ctx context.Context, password []byte, encoded string) (bool, error)
	// VerifyDummy burns the cost of one Verify against a throwaway hash.
	VerifyDummy(ctx context.Context, password []byte) error
}

// Credentials are the raw sign-in inputs.
type Credentials struct {
	Email    string
	Password string
}

// Authenticator turns credentials into an account or a uniform rejection.
type Authenticator struct {
	accounts repository.AccountRepository
	hasher   PasswordHasher
}

// NewAuthenticator constructs an Authenticator over the given store and hasher.
func NewAuthenticator(accounts repository.AccountRepository, hasher PasswordHasher) *Authenticator {
	return &Authenticator{accounts: accounts, hasher: hasher}
}

// Authenticate returns the account for valid credentials and errs.ErrInvalidCredentials otherwise.
// Unknown emails still pay for a hash verification. Store and hasher failures are returned
// wrapped and never as errs.ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, c Credentials) (*model.Account, error) {
	acc, err := a.accounts.GetByEmail(ctx, c.Email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		if derr := a.hasher.VerifyDummy(ctx, []byte(c.Password)); derr != nil {
			return nil, fmt.Errorf("verify password: %w", derr)
		}
		return nil, errs.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := a.hasher.Verify(ctx, []byte(c.Password), acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, errs.ErrInvalidCredentials
	}
	return acc, nil
}
