package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is a single sitting at a poker table. Sessions are never updated;
// they are created once and removed by delete.
type Session struct {
	ID          int64      `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Location    string     `json:"location"`
	Stakes      *string    `json:"stakes"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	ProfitCents int64      `json:"profit_cents"`
}

// Profit returns the session result in cents.
func (s Session) Profit() int64 { return s.ProfitCents }

// InProgress reports whether the session has no end time.
func (s Session) InProgress() bool { return s.EndedAt == nil }

// Validate checks the constraints the store enforces on insert.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidRecord)
	}
	if s.StartedAt.IsZero() {
		return fmt.Errorf("%w: started_at is required", ErrInvalidRecord)
	}
	if s.EndedAt != nil && s.EndedAt.Before(s.StartedAt) {
		return fmt.Errorf("%w: ended_at must not precede started_at", ErrInvalidRecord)
	}
	return nil
}

// SessionDraft is unvalidated session input as entered in a form.
type SessionDraft struct {
	Title             string
	Location          string
	Stakes            string
	StartedAt         string // "2006-01-02T15:04" in the manager's location
	TimePlayedMinutes string
	ProfitDollars     string
}
