// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/authsite/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AccountRepository persists one row per account.
type AccountRepository interface {
	// Create inserts a new account. A taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, email, passwordHash string) (*model.Account, error)
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByEmail loads an account by its (normalized) email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}
