// Package remote talks to a pokerlog daemon over its JSON API. The Client
// satisfies the tracker Identity and Store interfaces, so the record
// managers run unchanged against a remote backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
	"github.com/google/uuid"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

var (
	_ tracker.Identity = (*Client)(nil)
	_ tracker.Store    = (*Client)(nil)
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// MaxConcurrent caps in-flight requests (default 4)
	MaxConcurrent int
	// RetryDelay is the first backoff for GET retries (default 200ms)
	RetryDelay time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is an HTTP client for the daemon API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	breaker  circuitbreaker.CircuitBreaker[*response]
	retrier  retry.Retry[*response]
	bulkhead bulkhead.Bulkhead[*response]

	mu    sync.RWMutex
	token string
	user  *domain.User
}

type response struct {
	status int
	body   []byte
}

// New creates a client for the daemon at cfg.BaseURL.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 200 * time.Millisecond
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
		token:   cfg.Token,
	}

	c.breaker = circuitbreaker.New[*response](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("daemon circuit breaker state change",
				"server", c.baseURL,
				"from", from.String(),
				"to", to.String())
		},
	})

	c.retrier = retry.New[*response](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  retryDelay,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})

	c.bulkhead = bulkhead.New[*response](bulkhead.Config{
		MaxConcurrent: maxConcurrent,
		MaxQueue:      maxConcurrent * 4,
		QueueTimeout:  timeout,
	})

	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 4,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Token returns the current login token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the login token and forgets the cached user.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.user = nil
	c.mu.Unlock()
}

// statusError is a non-2xx reply from the daemon.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match the domain sentinel for the status.
func (e *statusError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidRecord
	}
	return nil
}

func isServerFault(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// isRetryable accepts transport failures and server faults. Context
// cancellation is final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return isServerFault(se.Status)
	}
	return true
}

// call sends one request and decodes a 2xx body into out. Every call
// passes the circuit breaker and bulkhead; only GETs are retried.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
	}

	send := func(ctx context.Context) (*response, error) {
		return c.bulkhead.Execute(ctx, func(ctx context.Context) (*response, error) {
			return c.send(ctx, method, path, payload)
		})
	}

	resp, err := c.breaker.Execute(ctx, func(ctx context.Context) (*response, error) {
		if method == http.MethodGet {
			return c.retrier.Do(ctx, send)
		}
		return send(ctx)
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return &domain.StoreError{Op: op, Message: se.Message, Err: se}
		}
		return &domain.StoreError{Op: op, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
	}

	if resp.status == http.StatusUnauthorized {
		c.mu.Lock()
		c.user = nil
		c.mu.Unlock()
		return domain.NewAuthError(errors.New(errorMessage(resp)))
	}
	if resp.status >= 400 {
		se := &statusError{Status: resp.status, Message: errorMessage(resp)}
		return &domain.StoreError{Op: op, Message: se.Message, Err: se}
	}

	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return &domain.StoreError{Op: op, Message: fmt.Sprintf("decode %s response: %v", op, err), Err: err}
		}
	}
	return nil
}

// send performs the HTTP exchange. Server faults come back as errors so
// the breaker and retrier see them; client errors come back as responses.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	resp := &response{status: res.StatusCode, body: data}
	if isServerFault(res.StatusCode) {
		c.logger.Debug("daemon server fault", "method", method, "path", path, "status", res.StatusCode)
		return nil, &statusError{Status: res.StatusCode, Message: errorMessage(resp)}
	}
	return resp, nil
}

// errorMessage extracts the daemon's message from either error shape:
// {"error":"msg"} or {"error":{"code":"...","message":"msg"}}.
func errorMessage(resp *response) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err == nil && len(envelope.Error) > 0 {
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err == nil && msg != "" {
			return msg
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return http.StatusText(resp.status)
}

func listPath(base string, limit int) string {
	if limit > 0 {
		return base + "?limit=" + strconv.Itoa(limit)
	}
	return base
}

func recordPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// ownerMismatch guards against scoping a call to a user other than the
// one the token belongs to.
func (c *Client) ownerMismatch(op string, ownerID uuid.UUID) error {
	c.mu.RLock()
	user := c.user
	c.mu.RUnlock()
	if user != nil && ownerID != uuid.Nil && user.ID != ownerID {
		return &domain.StoreError{Op: op, Message: "owner does not match the logged in user"}
	}
	return nil
}
