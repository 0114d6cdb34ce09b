package sqlite

import (
	"github.com/felixgeelhaar/pokerlog/internal/auth"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
)

// Ensure SQLite stores implement the storage interfaces.
var (
	_ tracker.SessionStore = (*SessionStore)(nil)
	_ tracker.HandStore    = (*HandStore)(nil)
	_ tracker.Store        = (*Store)(nil)
	_ auth.Repository      = (*AuthStore)(nil)
)

// Store combines the session and hand stores on one database.
type Store struct {
	*SessionStore
	*HandStore
}

// NewStore creates a Store holding both record types on db.
func NewStore(db *DB) *Store {
	return &Store{
		SessionStore: NewSessionStore(db),
		HandStore:    NewHandStore(db),
	}
}
