package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is the relational record of one bracket match (tournament_histories).
// ExternalID is the match id inside the exported bracket.
type Match struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ExternalID   int        `json:"match_id" db:"external_id"`
	TournamentID uuid.UUID  `json:"tournament_id" db:"tournament_id"`
	Stage        string     `json:"stage" db:"stage"`
	Team1ID      *uuid.UUID `json:"team1_id" db:"team1_id"`
	Team2ID      *uuid.UUID `json:"team2_id" db:"team2_id"`
	WinnerID     *uuid.UUID `json:"winner_id" db:"winner_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

func (m *Match) IsResolved() bool {
	return m.WinnerID != nil
}

// Opponent returns the other side of the match, false if teamID does not play in it.
func (m *Match) Opponent(teamID uuid.UUID) (uuid.UUID, bool) {
	switch {
	case m.Team1ID != nil && *m.Team1ID == teamID && m.Team2ID != nil:
		return *m.Team2ID, true
	case m.Team2ID != nil && *m.Team2ID == teamID && m.Team1ID != nil:
		return *m.Team1ID, true
	}
	return uuid.Nil, false
}
