package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ tracker.Store = (*RecordStore)(nil)

// RecordStore implements session and hand persistence using a pgx pool.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a new PostgreSQL record store.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// ListSessions returns the owner's sessions, newest first.
func (r *RecordStore) ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Session, error) {
	query := `
		SELECT id, user_id, title, location, stakes, started_at, ended_at, profit_cents
		FROM sessions WHERE user_id = $1
		ORDER BY started_at DESC, id DESC
	`
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Title, &s.Location, &s.Stakes,
			&s.StartedAt, &s.EndedAt, &s.ProfitCents,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt = s.StartedAt.UTC()
		if s.EndedAt != nil {
			end := s.EndedAt.UTC()
			s.EndedAt = &end
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// CreateSession inserts a session and returns it with its assigned ID.
func (r *RecordStore) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	created := *session
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (user_id, title, location, stakes, started_at, ended_at, profit_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		created.UserID, created.Title, created.Location, created.Stakes,
		created.StartedAt, created.EndedAt, created.ProfitCents,
	).Scan(&created.ID)
	if err != nil {
		return nil, checkViolation("insert session", err)
	}
	return &created, nil
}

// DeleteSession removes a session owned by ownerID.
func (r *RecordStore) DeleteSession(ctx context.Context, ownerID uuid.UUID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListHands returns the owner's hands, newest first.
func (r *RecordStore) ListHands(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Hand, error) {
	query := `
		SELECT id, user_id, session_id, played_at, game, stakes, position, result, profit_cents, notes
		FROM hands WHERE user_id = $1
		ORDER BY played_at DESC, id DESC
	`
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hands: %w", err)
	}
	defer rows.Close()

	hands := []domain.Hand{}
	for rows.Next() {
		var h domain.Hand
		var result string
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.SessionID, &h.PlayedAt, &h.Game, &h.Stakes,
			&h.Position, &result, &h.ProfitCents, &h.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan hand: %w", err)
		}
		h.PlayedAt = h.PlayedAt.UTC()
		h.Result = domain.HandResult(result)
		hands = append(hands, h)
	}
	return hands, rows.Err()
}

// CreateHand inserts a hand. The session reference is stored as given.
func (r *RecordStore) CreateHand(ctx context.Context, hand *domain.Hand) (*domain.Hand, error) {
	if err := hand.Validate(); err != nil {
		return nil, err
	}

	created := *hand
	err := r.pool.QueryRow(ctx, `
		INSERT INTO hands (user_id, session_id, played_at, game, stakes, position, result, profit_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		created.UserID, created.SessionID, created.PlayedAt, created.Game, created.Stakes,
		created.Position, string(created.Result), created.ProfitCents, created.Notes,
	).Scan(&created.ID)
	if err != nil {
		return nil, checkViolation("insert hand", err)
	}
	return &created, nil
}

// DeleteHand removes a hand owned by ownerID.
func (r *RecordStore) DeleteHand(ctx context.Context, ownerID uuid.UUID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hands WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete hand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// checkViolation maps a CHECK constraint failure to ErrInvalidRecord.
func checkViolation(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRecord, pgErr.Message)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: no id returned", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
