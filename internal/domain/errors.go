package domain

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores,
// record managers and transports to communicate failure conditions.
// -----------------------------------------------------------------------------

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// ErrAuthSessionNotFound is returned for an unknown or expired login token
var ErrAuthSessionNotFound = errors.New("auth session not found")

// Record errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// NotAuthenticatedMessage is reported when no identity is available.
const NotAuthenticatedMessage = "Not authenticated"

// AuthError reports a missing identity or a failed identity lookup.
type AuthError struct {
	Err error
}

// NewAuthError wraps err, or reports "Not authenticated" when err is nil.
func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return NotAuthenticatedMessage
	}
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed user input caught before any store call.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError reports a rejected query, insert or delete. The message is
// passed through from the store unchanged.
type StoreError struct {
	Op      string
	Message string
	Err     error
}

// NewStoreError wraps err as a store failure for op.
func NewStoreError(op string, err error) *StoreError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &StoreError{Op: op, Message: msg, Err: err}
}

func (e *StoreError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
