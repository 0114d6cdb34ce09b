package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// AuthStore implements user and login-session persistence backed by SQLite.
type AuthStore struct {
	db *DB
}

// NewAuthStore creates a new SQLite-backed auth store.
func NewAuthStore(db *DB) *AuthStore {
	return &AuthStore{db: db}
}

// CreateUser inserts a new user.
func (s *AuthStore) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return domain.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *AuthStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID.
func (s *AuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *AuthStore) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE `+where, arg,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CreateSession inserts a new login session.
func (s *AuthStore) CreateSession(ctx context.Context, session *domain.AuthSession) error {
	var clientIP sql.NullString
	if session.ClientIP != "" {
		clientIP = sql.NullString{String: session.ClientIP, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, user_id, token, client_ip, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Token, clientIP,
		session.ExpiresAt.UTC(), session.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert auth session: %w", err)
	}
	return nil
}

// GetSessionByToken retrieves a login session by its token.
func (s *AuthStore) GetSessionByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	session := &domain.AuthSession{}
	var clientIP sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, client_ip, expires_at, created_at
		FROM auth_sessions WHERE token = ?`, token,
	).Scan(&session.ID, &session.UserID, &session.Token, &clientIP, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuthSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get auth session: %w", err)
	}
	session.ClientIP = clientIP.String
	return session, nil
}

// DeleteSession removes a login session.
func (s *AuthStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE id = ?", id)
	return err
}

// DeleteUserSessions removes all login sessions for a user.
func (s *AuthStore) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE user_id = ?", userID)
	return err
}

// DeleteExpiredSessions removes all expired login sessions.
func (s *AuthStore) DeleteExpiredSessions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE expires_at < ?", time.Now().UTC())
	return err
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
