package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HandResult is the outcome of a hand for the player
type HandResult string

const (
	HandWin  HandResult = "win"
	HandLoss HandResult = "loss"
	HandChop HandResult = "chop"
)

// Valid reports whether r is one of the known results
func (r HandResult) Valid() bool {
	switch r {
	case HandWin, HandLoss, HandChop:
		return true
	}
	return false
}

// Hand is a single recorded hand, optionally tied to a session. SessionID
// is a loose reference: deleting the session leaves it dangling.
type Hand struct {
	ID          int64      `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	SessionID   *int64     `json:"session_id"`
	PlayedAt    time.Time  `json:"played_at"`
	Game        string     `json:"game"`
	Stakes      string     `json:"stakes"`
	Position    string     `json:"position"`
	Result      HandResult `json:"result"`
	ProfitCents int64      `json:"profit_cents"`
	Notes       *string    `json:"notes"`
}

// Profit returns the hand result in cents.
func (h Hand) Profit() int64 { return h.ProfitCents }

// Validate checks the constraints the store enforces on insert.
func (h *Hand) Validate() error {
	if h.PlayedAt.IsZero() {
		return fmt.Errorf("%w: played_at is required", ErrInvalidRecord)
	}
	if !h.Result.Valid() {
		return fmt.Errorf("%w: result must be one of win, loss, chop", ErrInvalidRecord)
	}
	return nil
}

// Defaults for a new hand form
const (
	DefaultGame     = "NLH"
	DefaultStakes   = "1/2"
	DefaultPosition = "BTN"
	DefaultResult   = HandWin
)

// HandDraft is unvalidated hand input as entered in a form.
type HandDraft struct {
	SessionID     string // optional; empty means no session
	Game          string
	Stakes        string
	Position      string
	Result        HandResult
	ProfitDollars string
	Notes         string
}

// NewHandDraft returns a draft filled with the form defaults.
func NewHandDraft() HandDraft {
	return HandDraft{
		Game:          DefaultGame,
		Stakes:        DefaultStakes,
		Position:      DefaultPosition,
		Result:        DefaultResult,
		ProfitDollars: "0",
	}
}
