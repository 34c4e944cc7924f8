package brackets

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotEnoughSeeds = errors.New("at least two seeds are required")
	ErrInvalidSize    = errors.New("bracket size must be a power of two not smaller than the number of seeds")
)

type seedMatchup struct {
	seed1 int
	seed2 int
}

// arrangeSeeds returns the first round pairings of a bracket with numRounds
// rounds, as 0-based seed indexes. Seed 0 and seed 1 can only meet in the
// final, seeds 0..3 not before the semi-finals and so on.
func arrangeSeeds(numRounds int) []seedMatchup {
	matchups := []seedMatchup{{0, 1}}
	totalSeeds := 2

	for i := 1; i < numRounds; i++ {
		next := make([]seedMatchup, 0, totalSeeds)
		totalSeeds *= 2
		for _, parent := range matchups {
			next = append(next,
				seedMatchup{parent.seed1, totalSeeds - 1 - parent.seed1},
				seedMatchup{parent.seed2, totalSeeds - 1 - parent.seed2},
			)
		}
		matchups = next
	}

	return matchups
}

// NextPowerOfTwo returns the smallest power of two >= n (and >= 2).
func NextPowerOfTwo(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}

// RoundsFor returns the number of rounds of a bracket of the given size.
func RoundsFor(size int) int {
	rounds := 0
	for size > 1 {
		size >>= 1
		rounds++
	}
	return rounds
}

// CreateStage builds a single-elimination stage for the seeds, in seed order.
// A zero settings.Size sizes the bracket to the next power of two. Byes are
// resolved immediately: the seeded opponent is moved to the next round.
func CreateStage(tournamentID, name string, seeds []Seed, settings StageSettings) (*Bracket, error) {
	n := len(seeds)
	if n < 2 {
		return nil, ErrNotEnoughSeeds
	}

	size := settings.Size
	if size == 0 {
		size = NextPowerOfTwo(n)
	}
	if size < n || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: size %d for %d seeds", ErrInvalidSize, size, n)
	}
	settings.Size = size
	if settings.GrandFinal == "" {
		settings.GrandFinal = "simple"
	}
	if len(settings.SeedOrdering) == 0 {
		settings.SeedOrdering = []string{"inner_outer"}
	}

	b := &Bracket{
		Participants: make([]Participant, 0, n),
		Stages: []Stage{{
			ID:           0,
			TournamentID: tournamentID,
			Name:         name,
			Type:         StageTypeSingleElimination,
			Number:       1,
			Settings:     settings,
		}},
		Groups:     []Group{{ID: 0, StageID: 0, Number: 1}},
		MatchGames: []json.RawMessage{},
	}

	for i, s := range seeds {
		b.Participants = append(b.Participants, Participant{
			ID:           i,
			TournamentID: tournamentID,
			Name:         s.Label,
			Ref:          s.ID,
		})
	}

	numRounds := RoundsFor(size)
	matchID := 0
	for r := 1; r <= numRounds; r++ {
		b.Rounds = append(b.Rounds, Round{ID: r - 1, StageID: 0, GroupID: 0, Number: r})
		for k := 1; k <= size>>r; k++ {
			b.Matches = append(b.Matches, Match{
				ID:        matchID,
				StageID:   0,
				GroupID:   0,
				RoundID:   r - 1,
				Number:    k,
				Status:    StatusLocked,
				Opponent1: &Opponent{},
				Opponent2: &Opponent{},
			})
			matchID++
		}
	}

	for i, pair := range arrangeSeeds(numRounds) {
		m := &b.Matches[i]
		m.Opponent1 = seedOpponent(pair.seed1, n)
		m.Opponent2 = seedOpponent(pair.seed2, n)
	}

	if _, err := b.topology(); err != nil {
		return nil, fmt.Errorf("failed to link bracket: %w", err)
	}
	for i := 0; i < size/2; i++ {
		b.settle(&b.Matches[i])
	}

	return b, nil
}

func seedOpponent(seed, seedCount int) *Opponent {
	if seed >= seedCount {
		return nil
	}
	id := seed
	position := seed + 1
	return &Opponent{ID: &id, Position: &position}
}
