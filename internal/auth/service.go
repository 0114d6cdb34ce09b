// Package auth provides email and password identity with opaque login tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password Register accepts.
	MinPasswordLength = 8

	tokenBytes = 32
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionNotFound    = errors.New("session not found")
)

// Repository stores users and their login sessions. Lookups of missing rows
// return domain.ErrUserNotFound or domain.ErrAuthSessionNotFound.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	CreateSession(ctx context.Context, session *domain.AuthSession) error
	GetSessionByToken(ctx context.Context, token string) (*domain.AuthSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) error
}

// Service registers users and issues, checks and revokes login tokens.
type Service struct {
	repo       Repository
	sessionTTL time.Duration
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithLogger sets the logger for login and logout activity.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates an auth service whose tokens live for sessionTTL.
func NewService(repo Repository, sessionTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest contains registration data
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

// Register creates an account. Emails are matched case-insensitively.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	switch _, err := s.repo.GetUserByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index decides a concurrent duplicate
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// LoginRequest contains login credentials
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse is the user together with the token that identifies them.
type LoginResponse struct {
	User    *domain.User
	Session *domain.AuthSession
	Token   string
}

// Login checks the password and opens a login session. An unknown email and
// a wrong password fail alike with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	session := &domain.AuthSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     token,
		ClientIP:  req.ClientIP,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "expires_at", session.ExpiresAt)
	return &LoginResponse{User: user, Session: session, Token: token}, nil
}

// Authenticate resolves a token to its user. Expired sessions are deleted
// on sight and reported as ErrSessionExpired.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, *domain.AuthSession, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	if session.ExpiredAt(s.now()) {
		if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil, nil, ErrSessionExpired
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	return user, session, nil
}

// Logout ends the login session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("user logged out", "user_id", session.UserID)
	return nil
}

// LogoutAll ends every login session of the user behind token.
func (s *Service) LogoutAll(ctx context.Context, token string) error {
	user, _, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUserSessions(ctx, user.ID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	s.logger.Info("user logged out everywhere", "user_id", user.ID)
	return nil
}

// CleanupExpiredSessions removes all expired sessions
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	return s.repo.DeleteExpiredSessions(ctx)
}

func (s *Service) lookup(ctx context.Context, token string) (*domain.AuthSession, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.repo.GetSessionByToken(ctx, token)
	if errors.Is(err, domain.ErrAuthSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateToken returns n random bytes encoded as base64url.
func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
