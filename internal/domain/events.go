package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record event types
const (
	EventSessionCreated = "session.created"
	EventSessionDeleted = "session.deleted"
	EventHandCreated    = "hand.created"
	EventHandDeleted    = "hand.deleted"
)

// RecordEvent describes a write against the session or hand tables
type RecordEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	RecordID   int64     `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRecordEvent creates a RecordEvent stamped with the current time
func NewRecordEvent(eventType string, userID uuid.UUID, recordID int64) RecordEvent {
	return RecordEvent{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}
