// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	TokenType   string    // always "bearer"
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account. The password field always holds a salted
// one-way hash, never plaintext.
type User struct {
	ID        uuid.UUID // PK
	Name      string
	Email     string // unique, login key
	PwdHash   string // PHC-encoded Argon2id hash
	CreatedAt time.Time
}

// Task is a single to-do record with exclusive ownership.
type Task struct {
	ID        uuid.UUID // PK
	UserID    uuid.UUID // FK -> users.id, immutable after creation
	Title     string
	CreatedAt time.Time
}
