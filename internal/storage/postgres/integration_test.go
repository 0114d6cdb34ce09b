//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/storage/postgres"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a PostgreSQL container and returns a migrated DB.
func setupPostgres(t *testing.T) *postgres.DB {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pokerlog",
				"POSTGRES_PASSWORD": "pokerlog",
				"POSTGRES_DB":       "pokerlog",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}

	url := fmt.Sprintf("postgres://pokerlog:pokerlog@%s:%s/pokerlog?sslmode=disable", host, port.Port())
	db, err := postgres.Open(ctx, url)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestIntegration_Migrate(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	version, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 2 {
		t.Errorf("Version() = %d; want 2", version)
	}
}

func TestIntegration_AuthAndRecords(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	authStore := postgres.NewAuthStore(db.SQL)
	records := postgres.NewRecordStore(db.Pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		ID: uuid.New(), Email: "a@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now,
	}
	if err := authStore.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := authStore.CreateUser(ctx, user); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("duplicate CreateUser() error = %v; want ErrUserAlreadyExists", err)
	}

	if err := authStore.CreateSession(ctx, &domain.AuthSession{
		ID: uuid.New(), UserID: user.ID, Token: "tok", ClientIP: "192.0.2.7",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	got, err := authStore.GetSessionByToken(ctx, "tok")
	if err != nil {
		t.Fatalf("GetSessionByToken() error = %v", err)
	}
	if got.ClientIP != "192.0.2.7" {
		t.Errorf("ClientIP = %q; want 192.0.2.7", got.ClientIP)
	}

	end := now.Add(125 * time.Minute)
	sess, err := records.CreateSession(ctx, &domain.Session{
		UserID: user.ID, Title: "Wynn Night", Location: "Wynn",
		StartedAt: now, EndedAt: &end, ProfitCents: -4250,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	hand, err := records.CreateHand(ctx, &domain.Hand{
		UserID: user.ID, SessionID: &sess.ID, PlayedAt: now, Game: "NLH",
		Stakes: "1/2", Position: "BTN", Result: domain.HandWin, ProfitCents: 15000,
	})
	if err != nil {
		t.Fatalf("CreateHand() error = %v", err)
	}

	sessions, err := records.ListSessions(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].ProfitCents != -4250 || sessions[0].Stakes != nil {
		t.Errorf("ListSessions() = %+v", sessions)
	}

	if err := records.DeleteSession(ctx, user.ID, sess.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := records.DeleteSession(ctx, user.ID, sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteSession() error = %v; want ErrNotFound", err)
	}

	hands, err := records.ListHands(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("ListHands() error = %v", err)
	}
	if len(hands) != 1 || hands[0].ID != hand.ID || *hands[0].SessionID != sess.ID {
		t.Errorf("ListHands() = %+v; want dangling hand", hands)
	}
}
