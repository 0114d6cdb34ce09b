package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Validate(t *testing.T) {
	start := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	early := start.Add(-time.Minute)

	valid := Session{Title: "Wynn Night", Location: "Wynn", StartedAt: start, EndedAt: &end}
	assert.NoError(t, valid.Validate())
	assert.False(t, valid.InProgress())

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"blank title", func(s *Session) { s.Title = "  " }},
		{"blank location", func(s *Session) { s.Location = "" }},
		{"no start", func(s *Session) { s.StartedAt = time.Time{} }},
		{"end before start", func(s *Session) { s.EndedAt = &early }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidRecord)
		})
	}
}

func TestHand_Validate(t *testing.T) {
	h := Hand{PlayedAt: time.Now(), Result: HandChop}
	assert.NoError(t, h.Validate())

	h.Result = "fold"
	assert.ErrorIs(t, h.Validate(), ErrInvalidRecord)
}

func TestNewHandDraft_Defaults(t *testing.T) {
	d := NewHandDraft()
	assert.Equal(t, "NLH", d.Game)
	assert.Equal(t, "1/2", d.Stakes)
	assert.Equal(t, "BTN", d.Position)
	assert.Equal(t, HandWin, d.Result)
	assert.Equal(t, "0", d.ProfitDollars)
	assert.Empty(t, d.SessionID)
}
