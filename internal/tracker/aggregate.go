package tracker

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
)

// RecentSessionsLimit is the size of the dashboard's recent-session window.
const RecentSessionsLimit = 10

// Profitable is a record with a profit in cents.
type Profitable interface {
	Profit() int64
}

// SumProfit sums the profit of records. It only covers what was loaded: a
// list fetched with a limit gives a windowed total.
func SumProfit[T Profitable](records []T) int64 {
	var total int64
	for _, r := range records {
		total += r.Profit()
	}
	return total
}

// Dashboard loads the recent-session window and all hands for the current
// user. Its profit covers only the recent window, unlike
// SessionManager.TotalProfit which covers every session.
type Dashboard struct {
	status
	identity Identity
	sessions SessionStore
	hands    HandStore
	limit    int

	recent []domain.Session
	all    []domain.Hand
}

// NewDashboard creates a dashboard over the given stores.
func NewDashboard(identity Identity, sessions SessionStore, hands HandStore) *Dashboard {
	return &Dashboard{
		identity: identity,
		sessions: sessions,
		hands:    hands,
		limit:    RecentSessionsLimit,
	}
}

// Load fetches the most recent sessions, then every hand.
func (d *Dashboard) Load(ctx context.Context) error {
	d.begin()

	user, err := currentUser(ctx, d.identity)
	if err != nil {
		d.fail(err)
		return err
	}

	recent, err := d.sessions.ListSessions(ctx, user.ID, d.limit)
	if err != nil {
		err = storeError("list sessions", err)
		d.fail(err)
		return err
	}

	hands, err := d.hands.ListHands(ctx, user.ID, 0)
	if err != nil {
		err = storeError("list hands", err)
		d.fail(err)
		return err
	}

	d.mu.Lock()
	d.recent = recent
	d.all = hands
	d.state = StateLoaded
	d.mu.Unlock()
	return nil
}

// RecentSessions returns the loaded session window, newest first.
func (d *Dashboard) RecentSessions() []domain.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Session, len(d.recent))
	copy(out, d.recent)
	return out
}

// Hands returns every loaded hand, newest first.
func (d *Dashboard) Hands() []domain.Hand {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Hand, len(d.all))
	copy(out, d.all)
	return out
}

// RecentProfit sums profit over the recent-session window only.
func (d *Dashboard) RecentProfit() int64 {
	return SumProfit(d.RecentSessions())
}

// Summary describes the size of the recent window.
func (d *Dashboard) Summary() string {
	return fmt.Sprintf("Last %d sessions loaded", len(d.RecentSessions()))
}
