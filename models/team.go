package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is a registrant of a single tournament. IsBanned is not stored: it is
// computed from resolved matches the team has lost.
type Team struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	TournamentID       uuid.UUID `json:"tournament_id" db:"tournament_id"`
	TeamName           string    `json:"team_name" db:"team_name"`
	CaptainName        string    `json:"captain_name" db:"captain_name"`
	CaptainPhoneNumber string    `json:"captain_phone_number" db:"captain_phone_number"`
	IsBanned           bool      `json:"is_banned" db:"is_banned"`
	RegisteredAt       time.Time `json:"registered_at" db:"registered_at"`
}
