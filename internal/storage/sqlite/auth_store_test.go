package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

func TestAuthStore_Users(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewAuthStore(db)
	user := createTestUser(t, db, "a@example.com")

	byEmail, err := store.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID = %v; want %v", byEmail.ID, user.ID)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != "a@example.com" {
		t.Errorf("Email = %q", byID.Email)
	}

	if _, err := store.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUserByEmail(missing) error = %v; want ErrUserNotFound", err)
	}

	dup := *user
	dup.ID = uuid.New()
	if err := store.CreateUser(ctx, &dup); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("CreateUser(duplicate) error = %v; want ErrUserAlreadyExists", err)
	}
}

func TestAuthStore_Sessions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewAuthStore(db)
	user := createTestUser(t, db, "a@example.com")

	live := &domain.AuthSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "live-token",
		ClientIP:  "192.0.2.10",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	expired := &domain.AuthSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "old-token",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	for _, s := range []*domain.AuthSession{live, expired} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	got, err := store.GetSessionByToken(ctx, "live-token")
	if err != nil {
		t.Fatalf("GetSessionByToken() error = %v", err)
	}
	if got.UserID != user.ID || got.ClientIP != "192.0.2.10" {
		t.Errorf("session = %+v", got)
	}

	if err := store.DeleteExpiredSessions(ctx); err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if _, err := store.GetSessionByToken(ctx, "old-token"); !errors.Is(err, domain.ErrAuthSessionNotFound) {
		t.Errorf("expired session error = %v; want ErrAuthSessionNotFound", err)
	}

	if err := store.DeleteUserSessions(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUserSessions() error = %v", err)
	}
	if _, err := store.GetSessionByToken(ctx, "live-token"); !errors.Is(err, domain.ErrAuthSessionNotFound) {
		t.Errorf("after DeleteUserSessions error = %v; want ErrAuthSessionNotFound", err)
	}
}
