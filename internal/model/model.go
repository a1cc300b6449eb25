// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Account is a registered user. PasswordHash is the only field expected to change over time.
type Account struct {
	ID           uuid.UUID // PK, assigned on creation
	Email        string    // unique, normalized
	PasswordHash string    // PHC-encoded Argon2id hash
	CreatedAt    time.Time
}

// Session is a server-side login record referenced by the session cookie.
type Session struct {
	Token     string    // random, base64url
	AccountID uuid.UUID // FK -> users.id
	AuthHash  []byte    // snapshot of the account password hash at login
	ExpiresAt time.Time // sliding, pushed forward on use
	CreatedAt time.Time
}

// Principal is the identity resolved from a valid session.
type Principal struct {
	AccountID uuid.UUID
	Email     string
}

// Issued is the transport side of a freshly issued or refreshed session.
type Issued struct {
	Cookie    string    // signed cookie value
	ExpiresAt time.Time // matching cookie Expires
}
