package api

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/remote"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pacific = time.FixedZone("PST", -8*3600)

// newRemote starts the router on a real listener and logs a fresh user in.
func newRemote(t *testing.T) (*remote.Client, *recordingPublisher) {
	t.Helper()
	r, pub := newTestRouter(t, testConfig(t))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client := remote.New(remote.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	ctx := context.Background()
	_, err := client.Register(ctx, "ann@example.com", "Ann", "correct-horse")
	require.NoError(t, err)
	_, _, err = client.Login(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	return client, pub
}

func TestEndToEnd_WynnNight(t *testing.T) {
	client, pub := newRemote(t)
	ctx := context.Background()
	sessions := tracker.NewSessionManager(client, client, tracker.WithLocation(pacific))

	created, err := sessions.Create(ctx, domain.SessionDraft{
		Title:             "Wynn Night",
		Location:          "Wynn",
		StartedAt:         "2024-01-01T20:00",
		TimePlayedMinutes: "125",
		ProfitDollars:     "-42.50",
	})
	require.NoError(t, err)

	require.NotNil(t, created.EndedAt)
	assert.True(t, created.EndedAt.Equal(time.Date(2024, 1, 1, 22, 5, 0, 0, pacific)))
	assert.Equal(t, int64(-4250), created.ProfitCents)

	assert.Equal(t, tracker.StateLoaded, sessions.State())
	require.Len(t, sessions.Sessions(), 1)
	assert.Equal(t, int64(-4250), sessions.TotalProfit())
	assert.Equal(t, []string{domain.EventSessionCreated}, pub.types())
}

func TestEndToEnd_EmptyTitleNeverReachesServer(t *testing.T) {
	client, pub := newRemote(t)
	sessions := tracker.NewSessionManager(client, client)

	_, err := sessions.Create(context.Background(), domain.SessionDraft{Location: "Wynn", StartedAt: "2024-01-01T20:00"})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Title is required", ve.Message)
	assert.Empty(t, pub.types())
}

func TestEndToEnd_HandValidationKeepsList(t *testing.T) {
	client, _ := newRemote(t)
	ctx := context.Background()
	hands := tracker.NewHandManager(client, client, client)

	draft := domain.NewHandDraft()
	draft.ProfitDollars = "150"
	_, err := hands.Create(ctx, draft)
	require.NoError(t, err)
	require.Len(t, hands.Hands(), 1)

	draft.ProfitDollars = "12.3xyz"
	_, err = hands.Create(ctx, draft)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, hands.Hands(), 1)
	assert.Equal(t, int64(15000), hands.TotalProfit())
}

func TestEndToEnd_StoreRejectionPassesThrough(t *testing.T) {
	client, _ := newRemote(t)
	hands := tracker.NewHandManager(client, client, client)

	draft := domain.NewHandDraft()
	draft.Result = "fold"
	_, err := hands.Create(context.Background(), draft)
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))
	assert.Contains(t, err.Error(), "result must be one of win, loss, chop")
	assert.Equal(t, tracker.StateError, hands.State())
}

func TestEndToEnd_DeleteSessionLeavesHandsDangling(t *testing.T) {
	client, _ := newRemote(t)
	ctx := context.Background()
	sessions := tracker.NewSessionManager(client, client, tracker.WithLocation(pacific))
	hands := tracker.NewHandManager(client, client, client)

	s, err := sessions.Create(ctx, domain.SessionDraft{Title: "Home game", Location: "Dave's", StartedAt: "2024-02-01T19:00"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		draft := domain.NewHandDraft()
		draft.SessionID = jsonNumber(s.ID)
		_, err := hands.Create(ctx, draft)
		require.NoError(t, err)
	}

	require.NoError(t, sessions.Delete(ctx, s.ID))
	assert.Empty(t, sessions.Sessions())

	require.NoError(t, hands.Load(ctx))
	require.Len(t, hands.Hands(), 2)
	for _, h := range hands.Hands() {
		require.NotNil(t, h.SessionID)
		assert.Equal(t, s.ID, *h.SessionID)
	}
	assert.Empty(t, hands.Sessions())
}

func TestEndToEnd_DashboardWindow(t *testing.T) {
	client, _ := newRemote(t)
	ctx := context.Background()
	sessions := tracker.NewSessionManager(client, client, tracker.WithLocation(time.UTC))

	start := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		_, err := sessions.Create(ctx, domain.SessionDraft{
			Title:         "Night",
			Location:      "Aria",
			StartedAt:     start.AddDate(0, 0, i).Format("2006-01-02T15:04"),
			ProfitDollars: "10",
		})
		require.NoError(t, err)
	}

	dash := tracker.NewDashboard(client, client, client)
	require.NoError(t, dash.Load(ctx))
	assert.Len(t, dash.RecentSessions(), tracker.RecentSessionsLimit)
	assert.Equal(t, int64(10000), dash.RecentProfit())
	assert.Equal(t, int64(12000), sessions.TotalProfit())
}

func TestEndToEnd_LoggedOutIsAuthError(t *testing.T) {
	client, _ := newRemote(t)
	require.NoError(t, client.Logout(context.Background()))

	sessions := tracker.NewSessionManager(client, client)
	err := sessions.Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, tracker.StateError, sessions.State())
}
