// Package tracker holds the record managers for poker sessions and hands.
//
// A manager keeps the most recently loaded list for one entity in memory
// and tracks a load state. The data store stays authoritative: every create
// or delete is followed by a full reload rather than a local merge. The
// current user is resolved through an explicit Identity before each store
// call, so managers hold no ambient auth state.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

// Identity resolves the authenticated user that scopes every store call.
type Identity interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// SessionStore persists sessions. A limit <= 0 means no limit.
type SessionStore interface {
	ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Session, error)
	CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	DeleteSession(ctx context.Context, ownerID uuid.UUID, id int64) error
}

// HandStore persists hands. A limit <= 0 means no limit.
type HandStore interface {
	ListHands(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Hand, error)
	CreateHand(ctx context.Context, hand *domain.Hand) (*domain.Hand, error)
	DeleteHand(ctx context.Context, ownerID uuid.UUID, id int64) error
}

// Store is a backend holding both record types.
type Store interface {
	SessionStore
	HandStore
}

// State is the load state of a manager.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Option configures a manager.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		now:    time.Now,
		loc:    time.Local,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for write events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp new hands.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the zone form datetimes are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// status tracks the load state shared by all managers.
type status struct {
	mu    sync.RWMutex
	state State
	err   error
}

func (s *status) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the failure that put the manager into StateError, if any.
func (s *status) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *status) begin() {
	s.mu.Lock()
	s.state = StateLoading
	s.err = nil
	s.mu.Unlock()
}

func (s *status) fail(err error) {
	s.mu.Lock()
	s.state = StateError
	s.err = err
	s.mu.Unlock()
}

// currentUser asks the identity for the scoping user. Any failure is
// reported as an AuthError.
func currentUser(ctx context.Context, identity Identity) (*domain.User, error) {
	if identity == nil {
		return nil, domain.NewAuthError(nil)
	}
	user, err := identity.CurrentUser(ctx)
	if err != nil {
		if domain.IsAuth(err) {
			return nil, err
		}
		return nil, domain.NewAuthError(err)
	}
	if user == nil {
		return nil, domain.NewAuthError(nil)
	}
	return user, nil
}

// storeError reports a store failure as a StoreError, keeping auth
// failures raised by remote stores intact.
func storeError(op string, err error) error {
	if domain.IsStore(err) || domain.IsAuth(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.StoreError{Op: op, Message: op + ": " + err.Error(), Err: err}
	}
	return domain.NewStoreError(op, err)
}
