package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/pokerlog/internal/api/handlers"
	"github.com/felixgeelhaar/pokerlog/internal/api/middleware"
	"github.com/felixgeelhaar/pokerlog/internal/auth"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	app     *App
	limiter ratelimit.RateLimiter
	auth    *handlers.AuthHandler
	records *handlers.RecordHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) (*Router, error) {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
	}

	r.auth = handlers.NewAuthHandler(app.Auth, !app.Config.Debug, app.Config.SessionMaxAge)
	r.records = handlers.NewRecordHandler(app.Store, app.Events)

	r.registerRoutes()
	r.handler = r.buildMiddlewareChain(r.mux)

	return r, nil
}

// ServeHTTP dispatches through the middleware chain
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Close stops the rate limiter's background cleanup
func (r *Router) Close() error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Close()
}

func (r *Router) registerRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Auth (no auth required)
	r.mux.HandleFunc("POST /api/v1/auth/register", r.auth.Register)
	r.mux.HandleFunc("POST /api/v1/auth/login", r.auth.Login)
	r.mux.HandleFunc("POST /api/v1/auth/logout", r.auth.Logout)
	r.mux.HandleFunc("GET /api/v1/auth/me", r.auth.Me)

	// Sessions (requires auth)
	r.mux.HandleFunc("GET /api/v1/sessions", r.requireAuth(r.records.ListSessions))
	r.mux.HandleFunc("POST /api/v1/sessions", r.requireAuth(r.records.CreateSession))
	r.mux.HandleFunc("DELETE /api/v1/sessions/{id}", r.requireAuth(r.records.DeleteSession))

	// Hands (requires auth)
	r.mux.HandleFunc("GET /api/v1/hands", r.requireAuth(r.records.ListHands))
	r.mux.HandleFunc("POST /api/v1/hands", r.requireAuth(r.records.CreateHand))
	r.mux.HandleFunc("DELETE /api/v1/hands/{id}", r.requireAuth(r.records.DeleteHand))
}

func (r *Router) buildMiddlewareChain(handler http.Handler) http.Handler {
	cfg := r.app.Config

	// Apply middleware in reverse order (last applied = first executed)
	if cfg.RequestTimeout > 0 {
		handler = middleware.Timeout(cfg.Timeout())(handler)
	}
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)

	// Skip rate limiting in debug mode for easier development
	if !cfg.Debug {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		})
		handler = middleware.RateLimitMiddleware(r.limiter)(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

// requireAuth wraps a handler with authentication
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := handlers.SessionToken(req)
		if token == "" {
			Unauthorized(w, req, "authentication required")
			return
		}

		user, _, err := r.app.Auth.Authenticate(req.Context(), token)
		switch {
		case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrSessionExpired):
			Unauthorized(w, req, "invalid or expired session")
			return
		case err != nil:
			Internal(w, req, "authentication failed", err)
			return
		}

		ctx := context.WithValue(req.Context(), handlers.ContextKeyUser, user)
		next(w, req.WithContext(ctx))
	}
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if err := r.app.DB.PingContext(req.Context()); err != nil {
		slog.Error("database health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		r.jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{
				"database": "unhealthy",
			},
		})
		return
	}

	r.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

func (r *Router) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
