package identity

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("User not found")
	ErrClientIDTaken      = errors.New("User with this client_id already exists")
	ErrEmailTaken         = errors.New("User with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrPasswordTooShort   = errors.New("Password must be at least 6 characters")
)

const minPasswordLength = 6

// User is a wallet owner. ClientID is the identity every other module keys on.
type User struct {
	ID           string
	ClientID     string
	Name         string
	Email        string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser holds the fields accepted on user creation. Empty fields get
// generated defaults.
type NewUser struct {
	ClientID string
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// Changes is a partial user update; nil fields are left untouched.
type Changes struct {
	Name  *string
	Email *string
}
