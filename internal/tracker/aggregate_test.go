package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumProfit(t *testing.T) {
	assert.Equal(t, int64(0), SumProfit([]domain.Session{}))
	assert.Equal(t, int64(0), SumProfit[domain.Hand](nil))

	records := []domain.Hand{{ProfitCents: 500}, {ProfitCents: -125}, {}, {ProfitCents: 25}}
	assert.Equal(t, int64(400), SumProfit(records))

	reversed := []domain.Hand{records[3], records[2], records[1], records[0]}
	assert.Equal(t, SumProfit(records), SumProfit(reversed))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestDashboard_RecentWindowVersusAll(t *testing.T) {
	store := newMemStore()
	user := newUser()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := store.CreateSession(ctx, &domain.Session{
			UserID:      user.ID,
			Title:       fmt.Sprintf("session %d", i),
			Location:    "Wynn",
			StartedAt:   time.Date(2024, 1, i+1, 20, 0, 0, 0, time.UTC),
			ProfitCents: 1000,
		})
		require.NoError(t, err)
	}
	_, err := store.CreateHand(ctx, &domain.Hand{UserID: user.ID, PlayedAt: time.Now(), Result: domain.HandLoss, ProfitCents: -300})
	require.NoError(t, err)

	identity := &fakeIdentity{user: user}
	dash := NewDashboard(identity, store, store)
	require.NoError(t, dash.Load(ctx))

	require.Len(t, dash.RecentSessions(), RecentSessionsLimit)
	assert.Equal(t, "session 11", dash.RecentSessions()[0].Title)
	assert.Equal(t, int64(10000), dash.RecentProfit())
	assert.Equal(t, "Last 10 sessions loaded", dash.Summary())
	assert.Len(t, dash.Hands(), 1)

	page := NewSessionManager(identity, store)
	require.NoError(t, page.Load(ctx))
	assert.Equal(t, int64(12000), page.TotalProfit())
}

func TestDashboard_LoadFailure(t *testing.T) {
	store := newMemStore()
	store.listHandsErr = errBackend
	dash := NewDashboard(&fakeIdentity{user: newUser()}, store, store)

	err := dash.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, dash.State())
	assert.Equal(t, "Last 0 sessions loaded", dash.Summary())
}
