package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

// Publisher emits record events.
type Publisher interface {
	Publish(ctx context.Context, event domain.RecordEvent) error
}

// AMQPPublisher publishes record events to the record queue
type AMQPPublisher struct {
	conn *Connection
}

// NewAMQPPublisher creates a publisher on conn
func NewAMQPPublisher(conn *Connection) *AMQPPublisher {
	return &AMQPPublisher{conn: conn}
}

// Publish sends event to RecordQueueName
func (p *AMQPPublisher) Publish(ctx context.Context, event domain.RecordEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if err := p.conn.PublishJSON(ctx, RecordQueueName, event); err != nil {
		return fmt.Errorf("failed to publish record event: %w", err)
	}

	slog.Debug("published record event",
		"event_id", event.ID,
		"type", event.Type,
		"user_id", event.UserID,
		"record_id", event.RecordID,
	)
	return nil
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.RecordEvent) error { return nil }

// Emit publishes event and logs a failure instead of returning it, so a
// broker outage never fails the write that produced the event.
func Emit(ctx context.Context, p Publisher, event domain.RecordEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.Warn("record event not published",
			"type", event.Type,
			"record_id", event.RecordID,
			"error", err,
		)
	}
}
