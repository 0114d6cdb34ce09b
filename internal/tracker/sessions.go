package tracker

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/units"
	"github.com/google/uuid"
)

// Validation messages for session drafts
const (
	MsgTitleRequired     = "Title is required"
	MsgLocationRequired  = "Location is required"
	MsgStartedAtRequired = "Started At is required"
	MsgStartedAtInvalid  = "Started At must be a date and time (YYYY-MM-DDTHH:MM)."
	MsgTimePlayedInvalid = "Time Played must be a non-negative integer (minutes)."
	MsgSessionProfit     = "Profit must be a valid number (e.g. -25.50, 0, 10.00)."
)

// SessionManager owns the in-memory session list for the current user.
type SessionManager struct {
	status
	identity Identity
	store    SessionStore
	opts     options
	sessions []domain.Session
}

// NewSessionManager creates a session manager over store.
func NewSessionManager(identity Identity, store SessionStore, opts ...Option) *SessionManager {
	return &SessionManager{
		identity: identity,
		store:    store,
		opts:     buildOptions(opts),
	}
}

// Sessions returns a copy of the loaded sessions, newest first.
func (m *SessionManager) Sessions() []domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// TotalProfit sums the profit of every loaded session.
func (m *SessionManager) TotalProfit() int64 {
	return SumProfit(m.Sessions())
}

// Load replaces the in-memory list with all of the user's sessions.
func (m *SessionManager) Load(ctx context.Context) error {
	m.begin()

	user, err := currentUser(ctx, m.identity)
	if err != nil {
		m.fail(err)
		return err
	}

	sessions, err := m.store.ListSessions(ctx, user.ID, 0)
	if err != nil {
		err = storeError("list sessions", err)
		m.fail(err)
		return err
	}

	m.mu.Lock()
	m.sessions = sessions
	m.state = StateLoaded
	m.mu.Unlock()
	return nil
}

// Create validates draft, inserts the session and reloads the list.
// Validation failures never reach the store.
func (m *SessionManager) Create(ctx context.Context, draft domain.SessionDraft) (*domain.Session, error) {
	m.begin()

	user, err := currentUser(ctx, m.identity)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	session, err := buildSession(user.ID, draft, m.opts)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	created, err := m.store.CreateSession(ctx, session)
	if err != nil {
		err = storeError("create session", err)
		m.fail(err)
		return nil, err
	}

	m.opts.logger.Info("session created",
		"session_id", created.ID,
		"user_id", user.ID,
		"profit_cents", created.ProfitCents,
	)

	if err := m.Load(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Delete removes the session owned by the current user and reloads the list.
// Hands that reference the session are left untouched.
func (m *SessionManager) Delete(ctx context.Context, id int64) error {
	m.begin()

	user, err := currentUser(ctx, m.identity)
	if err != nil {
		m.fail(err)
		return err
	}

	if err := m.store.DeleteSession(ctx, user.ID, id); err != nil {
		err = storeError("delete session", err)
		m.fail(err)
		return err
	}

	m.opts.logger.Info("session deleted", "session_id", id, "user_id", user.ID)

	return m.Load(ctx)
}

// buildSession converts a draft into a session owned by ownerID.
func buildSession(ownerID uuid.UUID, draft domain.SessionDraft, o options) (*domain.Session, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, domain.NewValidationError("title", MsgTitleRequired)
	}
	location := strings.TrimSpace(draft.Location)
	if location == "" {
		return nil, domain.NewValidationError("location", MsgLocationRequired)
	}
	if strings.TrimSpace(draft.StartedAt) == "" {
		return nil, domain.NewValidationError("started_at", MsgStartedAtRequired)
	}
	startedAt, err := units.ParseLocalDateTime(draft.StartedAt, o.loc)
	if err != nil {
		return nil, domain.NewValidationError("started_at", MsgStartedAtInvalid)
	}

	session := &domain.Session{
		UserID:    ownerID,
		Title:     title,
		Location:  location,
		StartedAt: startedAt.UTC(),
	}

	if stakes := strings.TrimSpace(draft.Stakes); stakes != "" {
		session.Stakes = &stakes
	}

	if draft.TimePlayedMinutes != "" {
		endedAt, err := units.EndFromMinutes(startedAt, draft.TimePlayedMinutes)
		if err != nil {
			return nil, domain.NewValidationError("time_played", MsgTimePlayedInvalid)
		}
		endedAt = endedAt.UTC()
		session.EndedAt = &endedAt
	}

	if strings.TrimSpace(draft.ProfitDollars) != "" {
		cents, err := units.DollarsToCents(draft.ProfitDollars)
		if err != nil {
			return nil, domain.NewValidationError("profit", MsgSessionProfit)
		}
		session.ProfitCents = cents
	}

	return session, nil
}
