package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

// HandStore implements hand persistence backed by SQLite.
type HandStore struct {
	db *DB
}

// NewHandStore creates a new SQLite-backed hand store.
func NewHandStore(db *DB) *HandStore {
	return &HandStore{db: db}
}

// ListHands returns the owner's hands, newest first.
func (s *HandStore) ListHands(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Hand, error) {
	query := `
		SELECT id, user_id, session_id, played_at, game, stakes, position, result, profit_cents, notes
		FROM hands WHERE user_id = ?
		ORDER BY played_at DESC, id DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hands: %w", err)
	}
	defer rows.Close()

	hands := []domain.Hand{}
	for rows.Next() {
		var h domain.Hand
		var sessionID sql.NullInt64
		var notes sql.NullString
		var result string

		if err := rows.Scan(
			&h.ID, &h.UserID, &sessionID, &h.PlayedAt, &h.Game, &h.Stakes,
			&h.Position, &result, &h.ProfitCents, &notes,
		); err != nil {
			return nil, fmt.Errorf("scan hand: %w", err)
		}

		h.PlayedAt = h.PlayedAt.UTC()
		h.Result = domain.HandResult(result)
		if sessionID.Valid {
			h.SessionID = &sessionID.Int64
		}
		if notes.Valid {
			h.Notes = &notes.String
		}
		hands = append(hands, h)
	}
	return hands, rows.Err()
}

// CreateHand inserts a hand. The session reference is stored as given.
func (s *HandStore) CreateHand(ctx context.Context, hand *domain.Hand) (*domain.Hand, error) {
	if err := hand.Validate(); err != nil {
		return nil, err
	}

	created := *hand
	created.PlayedAt = hand.PlayedAt.UTC()

	var sessionID sql.NullInt64
	if hand.SessionID != nil {
		sessionID = sql.NullInt64{Int64: *hand.SessionID, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO hands (user_id, session_id, played_at, game, stakes, position, result, profit_cents, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.UserID, sessionID, created.PlayedAt, created.Game, created.Stakes,
		created.Position, string(created.Result), created.ProfitCents, nullString(created.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("insert hand: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("hand id: %w", err)
	}
	created.ID = id
	return &created, nil
}

// DeleteHand removes a hand owned by ownerID.
func (s *HandStore) DeleteHand(ctx context.Context, ownerID uuid.UUID, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM hands WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete hand: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
