// Package mcp exposes poker sessions and hands as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
	"github.com/felixgeelhaar/pokerlog/internal/units"
)

// Server wraps the MCP server with pokerlog functionality
type Server struct {
	mcpServer *server.Server
	sessions  *tracker.SessionManager
	hands     *tracker.HandManager
	dashboard *tracker.Dashboard
	loc       *time.Location
}

// Config contains configuration for the MCP server
type Config struct {
	Identity tracker.Identity
	Store    tracker.Store
	Version  string
	Location *time.Location
	Logger   *slog.Logger
}

// NewServer creates a new MCP server for pokerlog
func NewServer(cfg Config) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	opts := []tracker.Option{tracker.WithLocation(loc), tracker.WithLogger(cfg.Logger)}

	s := &Server{
		sessions:  tracker.NewSessionManager(cfg.Identity, cfg.Store, opts...),
		hands:     tracker.NewHandManager(cfg.Identity, cfg.Store, cfg.Store, opts...),
		dashboard: tracker.NewDashboard(cfg.Identity, cfg.Store, cfg.Store),
		loc:       loc,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "pokerlog",
		Version: version,
	}, server.WithInstructions(`
pokerlog records poker sessions and individual hands for the logged in user.

Available tools:
- pokerlog_sessions_list: List all sessions, newest first, with total profit
- pokerlog_session_add: Record a session
- pokerlog_session_delete: Delete a session (its hands are kept)
- pokerlog_hands_list: List all hands, newest first, with total profit
- pokerlog_hand_add: Record a hand played now
- pokerlog_hand_delete: Delete a hand
- pokerlog_dashboard: Profit over the last 10 sessions and the hand count

Amounts are dollars ("-42.50"). Session start times are local "YYYY-MM-DDTHH:MM".
`))

	s.registerTools()

	return s
}

// registerTools registers all pokerlog MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("pokerlog_sessions_list").
		Description("List all poker sessions, newest first, with the total profit.").
		Handler(s.handleSessionsList)

	s.mcpServer.Tool("pokerlog_session_add").
		Description("Record a poker session.").
		Handler(s.handleSessionAdd)

	s.mcpServer.Tool("pokerlog_session_delete").
		Description("Delete a poker session. Hands that reference it are kept.").
		Handler(s.handleSessionDelete)

	s.mcpServer.Tool("pokerlog_hands_list").
		Description("List all recorded hands, newest first, with the total profit.").
		Handler(s.handleHandsList)

	s.mcpServer.Tool("pokerlog_hand_add").
		Description("Record a hand played now.").
		Handler(s.handleHandAdd)

	s.mcpServer.Tool("pokerlog_hand_delete").
		Description("Delete a recorded hand.").
		Handler(s.handleHandDelete)

	s.mcpServer.Tool("pokerlog_dashboard").
		Description("Profit over the last 10 sessions and the number of hands.").
		Handler(s.handleDashboard)
}

// Input/Output types for tools

type ListInput struct{}

type SessionView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	Stakes    string `json:"stakes,omitempty"`
	StartedAt string `json:"started_at"`
	Duration  string `json:"duration"`
	Profit    string `json:"profit"`
}

type HandView struct {
	ID        int64  `json:"id"`
	SessionID *int64 `json:"session_id,omitempty"`
	PlayedAt  string `json:"played_at"`
	Game      string `json:"game"`
	Stakes    string `json:"stakes"`
	Position  string `json:"position"`
	Result    string `json:"result"`
	Profit    string `json:"profit"`
	Notes     string `json:"notes,omitempty"`
}

type SessionsOutput struct {
	Sessions    []SessionView `json:"sessions"`
	Count       int           `json:"count"`
	TotalProfit string        `json:"total_profit"`
}

type SessionAddInput struct {
	Title             string `json:"title" jsonschema:"description=Session title"`
	Location          string `json:"location" jsonschema:"description=Casino or venue"`
	Stakes            string `json:"stakes,omitempty" jsonschema:"description=Stakes such as 1/2"`
	StartedAt         string `json:"started_at" jsonschema:"description=Local start time as YYYY-MM-DDTHH:MM"`
	TimePlayedMinutes string `json:"time_played_minutes,omitempty" jsonschema:"description=Whole minutes played; empty means in progress"`
	Profit            string `json:"profit,omitempty" jsonschema:"description=Profit in dollars such as -25.50; defaults to 0"`
}

type SessionAddOutput struct {
	Session SessionView `json:"session"`
	Message string      `json:"message"`
}

type DeleteInput struct {
	ID int64 `json:"id" jsonschema:"description=Record ID"`
}

type DeleteOutput struct {
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

type HandsOutput struct {
	Hands       []HandView `json:"hands"`
	Count       int        `json:"count"`
	TotalProfit string     `json:"total_profit"`
}

type HandAddInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Optional session ID the hand belongs to"`
	Game      string `json:"game,omitempty" jsonschema:"description=Game (default NLH)"`
	Stakes    string `json:"stakes,omitempty" jsonschema:"description=Stakes (default 1/2)"`
	Position  string `json:"position,omitempty" jsonschema:"description=Table position (default BTN)"`
	Result    string `json:"result,omitempty" jsonschema:"description=Hand result,enum=win,enum=loss,enum=chop"`
	Profit    string `json:"profit,omitempty" jsonschema:"description=Profit in dollars such as -25; defaults to 0"`
	Notes     string `json:"notes,omitempty" jsonschema:"description=Free-form notes"`
}

type HandAddOutput struct {
	Hand    HandView `json:"hand"`
	Message string   `json:"message"`
}

type DashboardOutput struct {
	RecentSessions []SessionView `json:"recent_sessions"`
	RecentProfit   string        `json:"recent_profit"`
	HandCount      int           `json:"hand_count"`
	Summary        string        `json:"summary"`
}

// Tool handlers

func (s *Server) handleSessionsList(ctx context.Context, _ ListInput) (SessionsOutput, error) {
	if err := s.sessions.Load(ctx); err != nil {
		return SessionsOutput{}, fmt.Errorf("failed to load sessions: %w", err)
	}

	sessions := s.sessions.Sessions()
	return SessionsOutput{
		Sessions:    s.sessionViews(sessions),
		Count:       len(sessions),
		TotalProfit: units.FormatCents(s.sessions.TotalProfit()),
	}, nil
}

func (s *Server) handleSessionAdd(ctx context.Context, input SessionAddInput) (SessionAddOutput, error) {
	created, err := s.sessions.Create(ctx, domain.SessionDraft{
		Title:             input.Title,
		Location:          input.Location,
		Stakes:            input.Stakes,
		StartedAt:         input.StartedAt,
		TimePlayedMinutes: input.TimePlayedMinutes,
		ProfitDollars:     input.Profit,
	})
	if err != nil {
		return SessionAddOutput{}, err
	}

	return SessionAddOutput{
		Session: s.sessionView(*created),
		Message: fmt.Sprintf("Session %d recorded. Total profit: %s", created.ID, units.FormatCents(s.sessions.TotalProfit())),
	}, nil
}

func (s *Server) handleSessionDelete(ctx context.Context, input DeleteInput) (DeleteOutput, error) {
	if err := s.sessions.Delete(ctx, input.ID); err != nil {
		return DeleteOutput{}, fmt.Errorf("failed to delete session %d: %w", input.ID, err)
	}

	return DeleteOutput{
		Message:   fmt.Sprintf("Session %d deleted", input.ID),
		Remaining: len(s.sessions.Sessions()),
	}, nil
}

func (s *Server) handleHandsList(ctx context.Context, _ ListInput) (HandsOutput, error) {
	if err := s.hands.Load(ctx); err != nil {
		return HandsOutput{}, fmt.Errorf("failed to load hands: %w", err)
	}

	hands := s.hands.Hands()
	return HandsOutput{
		Hands:       s.handViews(hands),
		Count:       len(hands),
		TotalProfit: units.FormatCents(s.hands.TotalProfit()),
	}, nil
}

func (s *Server) handleHandAdd(ctx context.Context, input HandAddInput) (HandAddOutput, error) {
	draft := domain.NewHandDraft()
	draft.SessionID = input.SessionID
	draft.Notes = input.Notes
	if v := strings.TrimSpace(input.Game); v != "" {
		draft.Game = v
	}
	if v := strings.TrimSpace(input.Stakes); v != "" {
		draft.Stakes = v
	}
	if v := strings.TrimSpace(input.Position); v != "" {
		draft.Position = v
	}
	if v := strings.TrimSpace(input.Result); v != "" {
		draft.Result = domain.HandResult(strings.ToLower(v))
	}
	if input.Profit != "" {
		draft.ProfitDollars = input.Profit
	}

	created, err := s.hands.Create(ctx, draft)
	if err != nil {
		return HandAddOutput{}, err
	}

	return HandAddOutput{
		Hand:    s.handView(*created),
		Message: fmt.Sprintf("Hand %d recorded. Total: $%d", created.ID, s.hands.TotalWholeDollars()),
	}, nil
}

func (s *Server) handleHandDelete(ctx context.Context, input DeleteInput) (DeleteOutput, error) {
	if err := s.hands.Delete(ctx, input.ID); err != nil {
		return DeleteOutput{}, fmt.Errorf("failed to delete hand %d: %w", input.ID, err)
	}

	return DeleteOutput{
		Message:   fmt.Sprintf("Hand %d deleted", input.ID),
		Remaining: len(s.hands.Hands()),
	}, nil
}

func (s *Server) handleDashboard(ctx context.Context, _ ListInput) (DashboardOutput, error) {
	if err := s.dashboard.Load(ctx); err != nil {
		return DashboardOutput{}, fmt.Errorf("failed to load dashboard: %w", err)
	}

	return DashboardOutput{
		RecentSessions: s.sessionViews(s.dashboard.RecentSessions()),
		RecentProfit:   units.FormatCents(s.dashboard.RecentProfit()),
		HandCount:      len(s.dashboard.Hands()),
		Summary:        s.dashboard.Summary(),
	}, nil
}

func (s *Server) sessionView(sess domain.Session) SessionView {
	v := SessionView{
		ID:        sess.ID,
		Title:     sess.Title,
		Location:  sess.Location,
		StartedAt: units.FormatLocalDateTime(sess.StartedAt, s.loc),
		Duration:  units.ElapsedLabel(sess.StartedAt, sess.EndedAt),
		Profit:    units.FormatCents(sess.ProfitCents),
	}
	if sess.Stakes != nil {
		v.Stakes = *sess.Stakes
	}
	return v
}

func (s *Server) sessionViews(sessions []domain.Session) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, s.sessionView(sess))
	}
	return views
}

func (s *Server) handView(h domain.Hand) HandView {
	v := HandView{
		ID:        h.ID,
		SessionID: h.SessionID,
		PlayedAt:  units.FormatLocalDateTime(h.PlayedAt, s.loc),
		Game:      h.Game,
		Stakes:    h.Stakes,
		Position:  h.Position,
		Result:    string(h.Result),
		Profit:    units.FormatCents(h.ProfitCents),
	}
	if h.Notes != nil {
		v.Notes = *h.Notes
	}
	return v
}

func (s *Server) handViews(hands []domain.Hand) []HandView {
	views := make([]HandView, 0, len(hands))
	for _, h := range hands {
		views = append(views, s.handView(h))
	}
	return views
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
