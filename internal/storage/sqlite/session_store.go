package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

// SessionStore implements poker session persistence backed by SQLite.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SQLite-backed session store.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// ListSessions returns the owner's sessions, newest first. A limit <= 0
// returns every session.
func (s *SessionStore) ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Session, error) {
	query := `
		SELECT id, user_id, title, location, stakes, started_at, ended_at, profit_cents
		FROM sessions WHERE user_id = ?
		ORDER BY started_at DESC, id DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// CreateSession inserts a session and returns it with its assigned ID.
func (s *SessionStore) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	created := *session
	created.StartedAt = session.StartedAt.UTC()
	if session.EndedAt != nil {
		end := session.EndedAt.UTC()
		created.EndedAt = &end
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, title, location, stakes, started_at, ended_at, profit_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.UserID, created.Title, created.Location, created.Stakes,
		created.StartedAt, nullTime(created.EndedAt), created.ProfitCents,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	created.ID = id
	return &created, nil
}

// DeleteSession removes a session owned by ownerID. Hands pointing at it
// are kept.
func (s *SessionStore) DeleteSession(ctx context.Context, ownerID uuid.UUID, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSession(rows *sql.Rows) (*domain.Session, error) {
	var sess domain.Session
	var stakes sql.NullString
	var endedAt sql.NullTime

	err := rows.Scan(
		&sess.ID, &sess.UserID, &sess.Title, &sess.Location, &stakes,
		&sess.StartedAt, &endedAt, &sess.ProfitCents,
	)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.StartedAt = sess.StartedAt.UTC()
	if stakes.Valid {
		sess.Stakes = &stakes.String
	}
	if endedAt.Valid {
		end := endedAt.Time.UTC()
		sess.EndedAt = &end
	}
	return &sess, nil
}

// nullTime converts a *time.Time to sql.NullTime for storage.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a *string to sql.NullString for storage.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
