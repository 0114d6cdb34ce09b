package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/api/middleware"
	"github.com/felixgeelhaar/pokerlog/internal/auth"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *auth.Service
	cookieMaxAge int
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, secureCookie bool, maxAge int) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieMaxAge: maxAge,
		secureCookie: secureCookie,
	}
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the response for user data
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})

	switch {
	case errors.Is(err, auth.ErrEmailExists):
		jsonError(w, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrEmailRequired):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("registration failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"user": newUserResponse(user),
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: middleware.ClientIP(r),
	})

	if errors.Is(err, auth.ErrInvalidCredentials) {
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   h.cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, http.StatusOK, map[string]any{
		"user":  newUserResponse(result.User),
		"token": result.Token,
	})
}

// Logout ends the caller's login session. With ?all=true every session of
// the user is ended.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := SessionToken(r)
	if token == "" {
		jsonError(w, http.StatusBadRequest, "not logged in")
		return
	}

	if r.URL.Query().Get("all") == "true" {
		err := h.authService.LogoutAll(r.Context(), token)
		if err != nil && !isSessionError(err) {
			slog.Error("logout all failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
			jsonError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	} else if err := h.authService.Logout(r.Context(), token); err != nil {
		// The caller is logged out either way
		slog.Debug("logout of unknown session", "error", err)
	}

	h.clearCookie(w)
	jsonResponse(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Me returns the current user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := SessionToken(r)
	if token == "" {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, _, err := h.authService.Authenticate(r.Context(), token)
	if isSessionError(err) {
		h.clearCookie(w)
		jsonError(w, http.StatusUnauthorized, "session expired")
		return
	}
	if err != nil {
		slog.Error("session lookup failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user": newUserResponse(user),
	})
}

func isSessionError(err error) bool {
	return errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
