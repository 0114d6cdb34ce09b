package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one record event. An error requeues the message once;
// a second failure drops it.
type Handler func(ctx context.Context, event domain.RecordEvent) error

// ConsumerConfig sizes the consumer. Zero values take the defaults.
type ConsumerConfig struct {
	Workers  int
	Prefetch int
}

// DefaultConsumerConfig is a single worker, which keeps events in order.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{Workers: 1, Prefetch: 10}
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	return cfg
}

// Consumer feeds deliveries from RecordQueueName to a Handler. When the
// subscription ends because the broker went away, it subscribes again on
// the reconnected channel. Done is closed once it stops for good.
type Consumer struct {
	conn    *Connection
	handler Handler
	cfg     ConsumerConfig

	subscribe  func() (<-chan amqp.Delivery, error)
	retryDelay func(attempt int) time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// NewConsumer creates a consumer. Nothing is read until Start.
func NewConsumer(conn *Connection, handler Handler, cfg ConsumerConfig) *Consumer {
	c := &Consumer{
		conn:       conn,
		handler:    handler,
		cfg:        cfg.withDefaults(),
		retryDelay: reconnectBackoff,
		done:       make(chan struct{}),
	}
	c.subscribe = c.consume
	return c
}

// Start subscribes to the queue and returns once the workers are running.
// Call Stop to end them.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.subscribe()
	if err != nil {
		return err
	}

	ctx, c.cancel = context.WithCancel(ctx)
	slog.Info("record event consumer started", "workers", c.cfg.Workers, "prefetch", c.cfg.Prefetch)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		c.run(ctx, deliveries)
	}()
	return nil
}

// Done is closed when the consumer has stopped, either through Stop or
// because it could not subscribe again. Err tells the two apart.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// Err returns why the consumer gave up, or nil.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// consume opens a subscription with manual acks on the current channel.
func (c *Consumer) consume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil || ch.IsClosed() {
		return nil, errNoChannel
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(RecordQueueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", RecordQueueName, err)
	}
	return deliveries, nil
}

func (c *Consumer) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		c.drain(ctx, deliveries)
		if ctx.Err() != nil {
			return
		}

		slog.Warn("record event subscription closed, resubscribing")
		next, err := c.resubscribe(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("record event consumer giving up", "error", err)
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}
		deliveries = next
	}
}

// drain runs the workers until deliveries closes or ctx ends.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	var wg sync.WaitGroup
	for id := range c.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(ctx, id, deliveries)
		}()
	}
	wg.Wait()
}

func (c *Consumer) resubscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	var last error
	for attempt := range maxReconnects {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay(attempt)):
		}
		deliveries, err := c.subscribe()
		if err == nil {
			slog.Info("record event subscription restored", "attempts", attempt+1)
			return deliveries, nil
		}
		last = err
	}
	return nil, fmt.Errorf("resubscribe to %s: %w", RecordQueueName, last)
}

func (c *Consumer) work(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				slog.Info("delivery channel closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage acks a handled event, rejects a body that is not an event
// and requeues a failed one unless it was already redelivered.
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	log := slog.With("worker_id", workerID)

	var event domain.RecordEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Error("dropping malformed record event", "error", err)
		_ = msg.Reject(false)
		return
	}
	log = log.With("event_id", event.ID, "type", event.Type)

	if err := c.handler(ctx, event); err != nil {
		requeue := !msg.Redelivered
		log.Error("record event handler failed", "error", err, "requeue", requeue)
		_ = msg.Nack(false, requeue)
		return
	}
	if err := msg.Ack(false); err != nil {
		log.Error("ack record event", "error", err)
	}
}

// Stop cancels the workers and waits for the in-flight message to finish.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	slog.Info("record event consumer stopped")
}
