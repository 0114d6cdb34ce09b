package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/pokerlog/internal/api/middleware"
)

// Error codes carried by router-level failures. Handler failures use the
// plain {"error": "..."} form instead.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is the {"code", "message"} body written under "error".
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *APIError) Error() string { return e.Message }
func (e *APIError) Unwrap() error { return e.cause }

// NewAPIError builds an error body.
func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithCause attaches the error that is logged but never sent to the client.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// WriteError logs apiErr at warn, or error for 5xx, and writes it as JSON.
func WriteError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError) {
	attrs := []any{
		"code", apiErr.Code,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if apiErr.cause != nil {
		attrs = append(attrs, "cause", apiErr.cause.Error())
	}
	if id := middleware.GetRequestID(r.Context()); id != "" {
		attrs = append(attrs, "request_id", id)
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, apiErr.Message, attrs...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error *APIError `json:"error"`
	}{apiErr})
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusUnauthorized, NewAPIError(CodeUnauthorized, message))
}

// Internal writes a 500 whose body says only message.
func Internal(w http.ResponseWriter, r *http.Request, message string, cause error) {
	WriteError(w, r, http.StatusInternalServerError, NewAPIError(CodeInternal, message).WithCause(cause))
}
