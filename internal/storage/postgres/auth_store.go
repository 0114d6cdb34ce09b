package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/felixgeelhaar/pokerlog/internal/auth"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

var _ auth.Repository = (*AuthStore)(nil)

// AuthStore implements auth.Repository using database/sql
type AuthStore struct {
	db *sql.DB
}

// NewAuthStore creates a new auth repository
func NewAuthStore(db *sql.DB) *AuthStore {
	return &AuthStore{db: db}
}

func (r *AuthStore) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrUserAlreadyExists
	}
	return err
}

func (r *AuthStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *AuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *AuthStore) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AuthStore) CreateSession(ctx context.Context, session *domain.AuthSession) error {
	query := `
		INSERT INTO auth_sessions (id, user_id, token, client_ip, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Token, toInet(session.ClientIP), session.ExpiresAt, session.CreatedAt)
	return err
}

func (r *AuthStore) GetSessionByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	query := `SELECT id, user_id, token, client_ip, expires_at, created_at FROM auth_sessions WHERE token = $1`
	row := r.db.QueryRowContext(ctx, query, token)

	var session domain.AuthSession
	var clientIP pqtype.Inet
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &clientIP, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuthSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if clientIP.Valid {
		session.ClientIP = clientIP.IPNet.IP.String()
	}
	return &session, nil
}

func (r *AuthStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE id = $1`, id)
	return err
}

func (r *AuthStore) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE user_id = $1`, userID)
	return err
}

func (r *AuthStore) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

// toInet converts a textual client address to an INET value. Unparseable
// addresses are stored as NULL.
func toInet(addr string) pqtype.Inet {
	ip := net.ParseIP(addr)
	if ip == nil {
		return pqtype.Inet{}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		bits = 32
	}
	return pqtype.Inet{
		IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Valid: true,
	}
}
