// Package events publishes and consumes record events over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// RecordQueueName is the durable queue record events are published to.
	RecordQueueName = "pokerlog.records"

	recordTTL     = 24 * time.Hour
	maxReconnects = 10
	maxBackoff    = 30 * time.Second
)

var errNoChannel = errors.New("amqp channel not open")

// Connection is a broker connection with one channel. When the broker drops
// it, the connection redials in the background with capped backoff.
type Connection struct {
	url string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewConnection dials url and declares the record queue.
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareRecordQueue(ch); err != nil {
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn, c.channel = conn, ch
	c.mu.Unlock()

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	slog.Info("connected to rabbitmq", "url", sanitizeURL(c.url))
	return nil
}

// declareRecordQueue makes the queue durable. Unconsumed events expire
// after a day.
func declareRecordQueue(ch *amqp.Channel) error {
	args := amqp.Table{"x-message-ttl": int32(recordTTL / time.Millisecond)}
	if _, err := ch.QueueDeclare(RecordQueueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare %s: %w", RecordQueueName, err)
	}
	return nil
}

// watch waits for the connection to drop and redials unless Close was called.
func (c *Connection) watch(closed <-chan *amqp.Error) {
	reason, ok := <-closed
	if !ok || reason == nil {
		return
	}
	if c.isClosed() {
		return
	}

	slog.Warn("rabbitmq connection lost", "error", reason)
	for attempt := range maxReconnects {
		time.Sleep(reconnectBackoff(attempt))
		if c.isClosed() {
			return
		}
		if err := c.dial(); err != nil {
			slog.Error("rabbitmq redial failed", "error", err, "attempt", attempt+1)
			continue
		}
		slog.Info("rabbitmq reconnected", "attempts", attempt+1)
		return
	}
	slog.Error("giving up on rabbitmq", "attempts", maxReconnects)
}

// reconnectBackoff is 1s, 2s, 4s and so on, capped at maxBackoff.
func reconnectBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxBackoff)
}

func (c *Connection) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Channel returns the current channel. It changes after a reconnect.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// IsConnected reports whether the underlying connection is open.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close stops reconnecting and closes the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// PublishJSON sends data as a persistent JSON message to queue through the
// default exchange.
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ch := c.Channel()
	if ch == nil {
		return fmt.Errorf("publish to %s: %w", queue, errNoChannel)
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// sanitizeURL redacts the password of an AMQP URL for logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Host != "" {
		return u.Redacted()
	}
	if len(raw) > 20 {
		return raw[:20] + "..."
	}
	return raw
}
