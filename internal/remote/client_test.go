package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUserID = uuid.MustParse("7b0d7f3e-2a55-4f0e-9a36-3f9d5c1e2b11")

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:    srv.URL,
		Token:      "tok",
		Timeout:    time.Second,
		RetryDelay: time.Millisecond,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{"id": testUserID.String(), "email": "a@b.c", "name": "Ann"},
	})
}

func TestClient_LoginKeepsToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ann@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]string{"id": testUserID.String(), "email": "ann@example.com"},
			"token": "fresh-token",
		})
	})
	mux.HandleFunc("GET /api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{"sessions": []domain.Session{{ID: 3, Title: "Wynn Night", ProfitCents: -4250}}})
	})
	c := newTestClient(t, mux)
	c.SetToken("")

	user, token, err := c.Login(context.Background(), "ann@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, testUserID, user.ID)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "fresh-token", c.Token())

	// Cached from login; no /me round trip needed.
	current, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testUserID, current.ID)

	sessions, err := c.ListSessions(context.Background(), testUserID, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(-4250), sessions[0].ProfitCents)
	assert.Equal(t, "Bearer fresh-token", gotAuth)
}

func TestClient_CurrentUserWithoutToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(meHandler))
	c.SetToken("")

	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, domain.NotAuthenticatedMessage, err.Error())
}

func TestClient_UnauthorizedIsAuthError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"code": "UNAUTHORIZED", "message": "invalid or expired session"},
		})
	}))

	_, err := c.ListHands(context.Background(), uuid.Nil, 0)
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, "invalid or expired session", err.Error())
}

func TestClient_StoreMessagePassesThrough(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid record: result must be one of win, loss, chop"})
	}))

	_, err := c.CreateHand(context.Background(), &domain.Hand{PlayedAt: time.Now(), Result: "fold"})
	require.Error(t, err)

	var se *domain.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "create hand", se.Op)
	assert.Equal(t, "invalid record: result must be one of win, loss, chop", se.Error())
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestClient_DeleteMissingIsNotFound(t *testing.T) {
	var path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.Method + " " + r.URL.Path
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	}))

	err := c.DeleteSession(context.Background(), uuid.Nil, 42)
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "DELETE /api/v1/sessions/42", path)
}

func TestClient_RetriesIdempotentReads(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "warming up"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hands": []domain.Hand{}})
	}))

	hands, err := c.ListHands(context.Background(), uuid.Nil, 0)
	require.NoError(t, err)
	assert.Empty(t, hands)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NeverRetriesWrites(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to access sessions"})
	}))

	_, err := c.CreateSession(context.Background(), &domain.Session{Title: "t", Location: "l", StartedAt: time.Now()})
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))
	assert.Contains(t, err.Error(), "failed to access sessions")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RequestsAreBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, Token: "tok", Timeout: 50 * time.Millisecond, RetryDelay: time.Millisecond})

	start := time.Now()
	err := c.DeleteHand(context.Background(), uuid.Nil, 1)
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_OwnerMismatch(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/auth/me", meHandler)
	mux.HandleFunc("/api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"sessions": []domain.Session{}})
	})
	c := newTestClient(t, mux)

	_, err := c.Me(context.Background())
	require.NoError(t, err)

	_, err = c.ListSessions(context.Background(), uuid.New(), 0)
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_LogoutDropsToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
	}))

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Empty(t, c.Token())
}

func TestClient_LogoutAllAsksForEverySession(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
	}))

	require.NoError(t, c.LogoutAll(context.Background()))
	assert.Equal(t, "all=true", gotQuery)
	assert.Empty(t, c.Token())

	// Already logged out: nothing to send
	gotQuery = ""
	require.NoError(t, c.LogoutAll(context.Background()))
	assert.Empty(t, gotQuery)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		resp *response
		want string
	}{
		{"string form", &response{status: 400, body: []byte(`{"error":"bad"}`)}, "bad"},
		{"object form", &response{status: 401, body: []byte(`{"error":{"code":"X","message":"nope"}}`)}, "nope"},
		{"plain text", &response{status: 404, body: []byte("404 page not found\n")}, "Not Found"},
		{"empty", &response{status: 502}, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.resp))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(errors.New("connection refused")))
	assert.True(t, isRetryable(&statusError{Status: 429}))
	assert.True(t, isRetryable(&statusError{Status: 503}))
	assert.False(t, isRetryable(&statusError{Status: 400}))
}
