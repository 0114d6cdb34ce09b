package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. Email is stored lowercased and is unique.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthSession is one login. Token is opaque and travels as a bearer token
// or the session cookie.
type AuthSession struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ClientIP  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the login is no longer valid at now.
func (s *AuthSession) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
