package tracker

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/units"
	"github.com/google/uuid"
)

// Validation messages for hand drafts
const (
	MsgHandProfit       = "Profit must be a valid dollar amount (e.g. -25, 0, 150)."
	MsgSessionIDInvalid = "Session must be a valid session id"
)

// HandManager owns the in-memory hand list for the current user, along with
// the user's sessions for picking a session to attach a hand to.
type HandManager struct {
	status
	identity Identity
	sessions SessionStore
	hands    HandStore
	opts     options

	handList    []domain.Hand
	sessionList []domain.Session
}

// NewHandManager creates a hand manager. sessions is read only.
func NewHandManager(identity Identity, sessions SessionStore, hands HandStore, opts ...Option) *HandManager {
	return &HandManager{
		identity: identity,
		sessions: sessions,
		hands:    hands,
		opts:     buildOptions(opts),
	}
}

// Hands returns a copy of the loaded hands, newest first.
func (m *HandManager) Hands() []domain.Hand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Hand, len(m.handList))
	copy(out, m.handList)
	return out
}

// Sessions returns the sessions loaded alongside the hands.
func (m *HandManager) Sessions() []domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Session, len(m.sessionList))
	copy(out, m.sessionList)
	return out
}

// TotalProfit sums the profit of every loaded hand.
func (m *HandManager) TotalProfit() int64 {
	return SumProfit(m.Hands())
}

// TotalWholeDollars is TotalProfit rounded to whole dollars.
func (m *HandManager) TotalWholeDollars() int64 {
	return units.WholeDollars(m.TotalProfit())
}

// Load fetches the user's sessions and hands concurrently. The load fails if
// either fetch fails; both failures are reported together.
func (m *HandManager) Load(ctx context.Context) error {
	m.begin()

	user, err := currentUser(ctx, m.identity)
	if err != nil {
		m.fail(err)
		return err
	}

	var (
		wg                sync.WaitGroup
		sessions          []domain.Session
		hands             []domain.Hand
		sessErr, handsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions, sessErr = m.sessions.ListSessions(ctx, user.ID, 0)
		if sessErr != nil {
			sessErr = storeError("list sessions", sessErr)
		}
	}()
	go func() {
		defer wg.Done()
		hands, handsErr = m.hands.ListHands(ctx, user.ID, 0)
		if handsErr != nil {
			handsErr = storeError("list hands", handsErr)
		}
	}()
	wg.Wait()

	if err := errors.Join(sessErr, handsErr); err != nil {
		m.fail(err)
		return err
	}

	m.mu.Lock()
	m.sessionList = sessions
	m.handList = hands
	m.state = StateLoaded
	m.mu.Unlock()
	return nil
}

// Create validates draft, inserts the hand stamped with the current time
// and reloads. The result is passed through as-is; the store decides whether
// it is acceptable.
func (m *HandManager) Create(ctx context.Context, draft domain.HandDraft) (*domain.Hand, error) {
	m.begin()

	user, err := currentUser(ctx, m.identity)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	hand, err := buildHand(user.ID, draft, m.opts)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	created, err := m.hands.CreateHand(ctx, hand)
	if err != nil {
		err = storeError("create hand", err)
		m.fail(err)
		return nil, err
	}

	m.opts.logger.Info("hand created",
		"hand_id", created.ID,
		"user_id", user.ID,
		"result", created.Result,
	)

	if err := m.Load(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Delete removes the hand owned by the current user and reloads.
func (m *HandManager) Delete(ctx context.Context, id int64) error {
	m.begin()

	user, err := currentUser(ctx, m.identity)
	if err != nil {
		m.fail(err)
		return err
	}

	if err := m.hands.DeleteHand(ctx, user.ID, id); err != nil {
		err = storeError("delete hand", err)
		m.fail(err)
		return err
	}

	m.opts.logger.Info("hand deleted", "hand_id", id, "user_id", user.ID)

	return m.Load(ctx)
}

// buildHand converts a draft into a hand owned by ownerID. The session
// reference is not checked against the user's sessions.
func buildHand(ownerID uuid.UUID, draft domain.HandDraft, o options) (*domain.Hand, error) {
	hand := &domain.Hand{
		UserID:   ownerID,
		PlayedAt: o.now().UTC(),
		Game:     draft.Game,
		Stakes:   draft.Stakes,
		Position: draft.Position,
		Result:   draft.Result,
	}

	if sid := strings.TrimSpace(draft.SessionID); sid != "" {
		id, err := strconv.ParseInt(sid, 10, 64)
		if err != nil {
			return nil, domain.NewValidationError("session_id", MsgSessionIDInvalid)
		}
		hand.SessionID = &id
	}

	if strings.TrimSpace(draft.ProfitDollars) != "" {
		cents, err := units.DollarsToCents(draft.ProfitDollars)
		if err != nil {
			return nil, domain.NewValidationError("profit", MsgHandProfit)
		}
		hand.ProfitCents = cents
	}

	if notes := strings.TrimSpace(draft.Notes); notes != "" {
		hand.Notes = &notes
	}

	return hand, nil
}
