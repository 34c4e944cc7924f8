package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus mirrors the CHECK constraint on tournaments.status.
type TournamentStatus string

const (
	StatusNotStarted TournamentStatus = "NOT_STARTED"
	StatusRegStarted TournamentStatus = "REG_STARTED"
	StatusStarted    TournamentStatus = "STARTED"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusRegStarted, StatusStarted:
		return true
	}
	return false
}

// Tournament is one bracketed event.
type Tournament struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	GameID         uuid.UUID        `json:"game_id" db:"game_id"`
	Name           string           `json:"name" db:"name"`
	RegStartDate   time.Time        `json:"reg_start_date" db:"reg_start_date"`
	StartDate      time.Time        `json:"start_date" db:"start_date"`
	Status         TournamentStatus `json:"status" db:"status"`
	CurrentStage   *string          `json:"current_stage" db:"current_stage"`
	ChampionTeamID *uuid.UUID       `json:"champion_team_id,omitempty" db:"champion_team_id"`
	LockVersion    int              `json:"-" db:"lock_version"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}

// IsFinished reports whether the final has been resolved.
func (t *Tournament) IsFinished() bool {
	return t.ChampionTeamID != nil
}

func (t *Tournament) Stage() string {
	if t.CurrentStage == nil {
		return ""
	}
	return *t.CurrentStage
}
