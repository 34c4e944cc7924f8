package utils

import (
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// BracketFileName builds the download name of a tournament bracket,
// e.g. "spring-cup-2024-bracket.json".
func BracketFileName(tournamentName string, id uuid.UUID) string {
	base := slug.Make(tournamentName)
	if base == "" {
		base = id.String()
	}
	return base + "-bracket.json"
}
