package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/events"
)

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Title       string     `json:"title"`
	Location    string     `json:"location"`
	Stakes      *string    `json:"stakes"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	ProfitCents int64      `json:"profit_cents"`
}

// ListSessions returns the user's sessions, newest first
func (h *RecordHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, ok := parseLimit(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	sessions, err := h.store.ListSessions(r.Context(), userID, limit)
	if err != nil {
		storeFailure(w, r, "session", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// CreateSession stores a new session for the user
func (h *RecordHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.store.CreateSession(r.Context(), &domain.Session{
		UserID:      userID,
		Title:       req.Title,
		Location:    req.Location,
		Stakes:      req.Stakes,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
		ProfitCents: req.ProfitCents,
	})
	if err != nil {
		storeFailure(w, r, "session", err)
		return
	}

	events.Emit(r.Context(), h.publisher, domain.NewRecordEvent(domain.EventSessionCreated, userID, created.ID))
	jsonResponse(w, http.StatusCreated, map[string]any{"session": created})
}

// DeleteSession removes one of the user's sessions
func (h *RecordHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	if err := h.store.DeleteSession(r.Context(), userID, id); err != nil {
		storeFailure(w, r, "session", err)
		return
	}

	events.Emit(r.Context(), h.publisher, domain.NewRecordEvent(domain.EventSessionDeleted, userID, id))
	w.WriteHeader(http.StatusNoContent)
}
