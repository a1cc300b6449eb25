// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates a rejected sign-in attempt. It never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrHashing indicates the password KDF itself failed (salt generation, parameters).
	ErrHashing = errors.New("password hashing failed")

	// ErrWorkerUnavailable indicates hashing work could not be dispatched to or awaited from a worker.
	ErrWorkerUnavailable = errors.New("hash worker unavailable")

	// ErrInvalidInput indicates a request that failed basic validation before reaching storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates missing or malformed startup configuration.
	ErrInvalidConfig = errors.New("invalid config")
)
