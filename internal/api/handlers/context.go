package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	ContextKeyUser ContextKey = "user"
)

// SessionCookieName is the cookie carrying the login token
const SessionCookieName = "session"

// UserFromContext returns the authenticated user stored by the router
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ContextKeyUser).(*domain.User)
	return u, ok && u != nil
}

// getUserIDFromContext extracts the user ID from request context
func getUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID, true
	}
	return uuid.Nil, false
}

// SessionToken returns the login token from the session cookie or an
// "Authorization: Bearer" header.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// parseLimit reads the optional ?limit=N query. Zero means no limit.
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseID reads the {id} path value as a record ID.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
