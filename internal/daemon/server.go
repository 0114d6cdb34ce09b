// Package daemon runs the pokerlog HTTP server and its background jobs.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/api"
	"github.com/felixgeelhaar/pokerlog/internal/config"
)

// DefaultCleanupInterval is how often expired login sessions are purged
const DefaultCleanupInterval = time.Hour

// Server represents the pokerlog daemon HTTP server
type Server struct {
	cfg    *config.Config
	server *http.Server
	app    *api.App
	router *api.Router

	cleanupInterval time.Duration
	stop            chan struct{}
	wg              sync.WaitGroup
	stopOnce        sync.Once
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config          *config.Config
	CleanupInterval time.Duration
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("daemon config is required")
	}

	app, err := api.NewApp(ctx, cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}

	router, err := api.NewRouter(app)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init router: %w", err)
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	s := &Server{
		cfg:             cfg.Config,
		app:             app,
		router:          router,
		cleanupInterval: interval,
		stop:            make(chan struct{}),
	}

	s.server = &http.Server{
		Addr:         cfg.Config.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the background jobs and the HTTP server
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve runs the server on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("starting pokerlog daemon",
		"addr", ln.Addr().String(),
		"storage", s.cfg.StorageDriver,
		"events", s.cfg.RabbitMQURL != "",
	)

	s.wg.Add(1)
	go s.cleanupLoop()

	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	err := s.server.Shutdown(ctx)

	if cerr := s.router.Close(); cerr != nil {
		slog.Warn("failed to close rate limiter", "error", cerr)
	}
	if cerr := s.app.Close(); cerr != nil {
		slog.Warn("failed to close app", "error", cerr)
	}
	return err
}

func (s *Server) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanupExpiredSessions()
		}
	}
}

func (s *Server) cleanupExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.app.Auth.CleanupExpiredSessions(ctx); err != nil {
		slog.Warn("expired session cleanup failed", "error", err)
		return
	}
	slog.Debug("expired sessions cleaned up")
}
