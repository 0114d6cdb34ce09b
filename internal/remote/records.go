package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

// The daemon scopes every record call to the token's user; ownerID is only
// checked against the cached identity.

func (c *Client) ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Session, error) {
	if err := c.ownerMismatch("list sessions", ownerID); err != nil {
		return nil, err
	}
	var out struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := c.call(ctx, "list sessions", http.MethodGet, listPath("/api/v1/sessions", limit), nil, &out); err != nil {
		return nil, err
	}
	if out.Sessions == nil {
		out.Sessions = []domain.Session{}
	}
	return out.Sessions, nil
}

func (c *Client) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if err := c.ownerMismatch("create session", session.UserID); err != nil {
		return nil, err
	}
	body := map[string]any{
		"title":        session.Title,
		"location":     session.Location,
		"stakes":       session.Stakes,
		"started_at":   session.StartedAt.UTC().Format(time.RFC3339Nano),
		"ended_at":     utcPtr(session.EndedAt),
		"profit_cents": session.ProfitCents,
	}
	var out struct {
		Session domain.Session `json:"session"`
	}
	if err := c.call(ctx, "create session", http.MethodPost, "/api/v1/sessions", body, &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

func (c *Client) DeleteSession(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if err := c.ownerMismatch("delete session", ownerID); err != nil {
		return err
	}
	return c.call(ctx, "delete session", http.MethodDelete, recordPath("/api/v1/sessions", id), nil, nil)
}

func (c *Client) ListHands(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Hand, error) {
	if err := c.ownerMismatch("list hands", ownerID); err != nil {
		return nil, err
	}
	var out struct {
		Hands []domain.Hand `json:"hands"`
	}
	if err := c.call(ctx, "list hands", http.MethodGet, listPath("/api/v1/hands", limit), nil, &out); err != nil {
		return nil, err
	}
	if out.Hands == nil {
		out.Hands = []domain.Hand{}
	}
	return out.Hands, nil
}

func (c *Client) CreateHand(ctx context.Context, hand *domain.Hand) (*domain.Hand, error) {
	if err := c.ownerMismatch("create hand", hand.UserID); err != nil {
		return nil, err
	}
	body := map[string]any{
		"session_id":   hand.SessionID,
		"played_at":    hand.PlayedAt.UTC().Format(time.RFC3339Nano),
		"game":         hand.Game,
		"stakes":       hand.Stakes,
		"position":     hand.Position,
		"result":       hand.Result,
		"profit_cents": hand.ProfitCents,
		"notes":        hand.Notes,
	}
	var out struct {
		Hand domain.Hand `json:"hand"`
	}
	if err := c.call(ctx, "create hand", http.MethodPost, "/api/v1/hands", body, &out); err != nil {
		return nil, err
	}
	return &out.Hand, nil
}

func (c *Client) DeleteHand(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if err := c.ownerMismatch("delete hand", ownerID); err != nil {
		return err
	}
	return c.call(ctx, "delete hand", http.MethodDelete, recordPath("/api/v1/hands", id), nil, nil)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
