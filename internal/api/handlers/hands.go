package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/events"
)

// CreateHandRequest is the request body for creating a hand
type CreateHandRequest struct {
	SessionID   *int64    `json:"session_id"`
	PlayedAt    time.Time `json:"played_at"`
	Game        string    `json:"game"`
	Stakes      string    `json:"stakes"`
	Position    string    `json:"position"`
	Result      string    `json:"result"`
	ProfitCents int64     `json:"profit_cents"`
	Notes       *string   `json:"notes"`
}

// ListHands returns the user's hands, newest first
func (h *RecordHandler) ListHands(w http.ResponseWriter, r *http.Request) {
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

	hands, err := h.store.ListHands(r.Context(), userID, limit)
	if err != nil {
		storeFailure(w, r, "hand", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"hands": hands})
}

// CreateHand stores a new hand for the user
func (h *RecordHandler) CreateHand(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateHandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.store.CreateHand(r.Context(), &domain.Hand{
		UserID:      userID,
		SessionID:   req.SessionID,
		PlayedAt:    req.PlayedAt,
		Game:        req.Game,
		Stakes:      req.Stakes,
		Position:    req.Position,
		Result:      domain.HandResult(req.Result),
		ProfitCents: req.ProfitCents,
		Notes:       req.Notes,
	})
	if err != nil {
		storeFailure(w, r, "hand", err)
		return
	}

	events.Emit(r.Context(), h.publisher, domain.NewRecordEvent(domain.EventHandCreated, userID, created.ID))
	jsonResponse(w, http.StatusCreated, map[string]any{"hand": created})
}

// DeleteHand removes one of the user's hands
func (h *RecordHandler) DeleteHand(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid hand ID")
		return
	}

	if err := h.store.DeleteHand(r.Context(), userID, id); err != nil {
		storeFailure(w, r, "hand", err)
		return
	}

	events.Emit(r.Context(), h.publisher, domain.NewRecordEvent(domain.EventHandDeleted, userID, id))
	w.WriteHeader(http.StatusNoContent)
}
