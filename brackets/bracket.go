// Package brackets is an in-memory single-elimination pairing engine. A
// Bracket is a plain value: it is created from seeds, mutated by results and
// exported to (or imported from) JSON between requests.
package brackets

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidOperation = errors.New("invalid bracket operation")
	ErrInvalidSnapshot  = errors.New("invalid bracket snapshot")
)

// Status values match the codes bracket viewers expect; 3 (running) and
// 5 (archived) are never produced.
type Status int

const (
	StatusLocked    Status = 0
	StatusWaiting   Status = 1
	StatusReady     Status = 2
	StatusCompleted Status = 4
)

const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

const StageTypeSingleElimination = "single_elimination"

// Result is one side's outcome of a match.
type Result struct {
	Score  int    `json:"score"`
	Result string `json:"result"`
}

var (
	Win  = Result{Score: 1, Result: ResultWin}
	Loss = Result{Score: 0, Result: ResultLoss}
)

// Seed is an entrant handed to CreateStage. ID is opaque to the engine and is
// kept on the participant as Ref.
type Seed struct {
	ID    string
	Label string
}

type Participant struct {
	ID           int    `json:"id"`
	TournamentID string `json:"tournament_id"`
	Name         string `json:"name"`
	Ref          string `json:"ref"`
}

type StageSettings struct {
	Size         int      `json:"size"`
	SeedOrdering []string `json:"seedOrdering,omitempty"`
	GrandFinal   string   `json:"grandFinal,omitempty"`
}

type Stage struct {
	ID           int           `json:"id"`
	TournamentID string        `json:"tournament_id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Number       int           `json:"number"`
	Settings     StageSettings `json:"settings"`
}

type Group struct {
	ID      int `json:"id"`
	StageID int `json:"stage_id"`
	Number  int `json:"number"`
}

type Round struct {
	ID      int `json:"id"`
	StageID int `json:"stage_id"`
	GroupID int `json:"group_id"`
	Number  int `json:"number"`
}

// Opponent is one slot of a match. A nil *Opponent is a bye; an Opponent
// with a nil ID is still to be decided.
type Opponent struct {
	ID       *int   `json:"id"`
	Position *int   `json:"position,omitempty"`
	Score    *int   `json:"score,omitempty"`
	Result   string `json:"result,omitempty"`
}

type Match struct {
	ID        int       `json:"id"`
	StageID   int       `json:"stage_id"`
	GroupID   int       `json:"group_id"`
	RoundID   int       `json:"round_id"`
	Number    int       `json:"number"`
	Status    Status    `json:"status"`
	Opponent1 *Opponent `json:"opponent1"`
	Opponent2 *Opponent `json:"opponent2"`
}

// IsBye reports whether one of the slots can never be filled.
func (m *Match) IsBye() bool {
	return m.Opponent1 == nil || m.Opponent2 == nil
}

// Participants returns the participant ids of both slots, -1 where unknown.
func (m *Match) Participants() (int, int) {
	return opponentID(m.Opponent1), opponentID(m.Opponent2)
}

func opponentID(o *Opponent) int {
	if o == nil || o.ID == nil {
		return -1
	}
	return *o.ID
}

// Bracket is the full exportable state. Field names follow the layout used by
// bracket viewers: one collection per entity.
type Bracket struct {
	Participants []Participant     `json:"participant"`
	Stages       []Stage           `json:"stage"`
	Groups       []Group           `json:"group"`
	Rounds       []Round           `json:"round"`
	Matches      []Match           `json:"match"`
	MatchGames   []json.RawMessage `json:"match_game"`

	topo *topology
}

// Export serializes the bracket as indented JSON.
func (b *Bracket) Export() ([]byte, error) {
	if b.MatchGames == nil {
		b.MatchGames = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export bracket: %w", err)
	}
	return append(data, '\n'), nil
}

// Import restores a bracket produced by Export.
func Import(data []byte) (*Bracket, error) {
	b := &Bracket{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(b.Stages) == 0 || len(b.Matches) == 0 {
		return nil, fmt.Errorf("%w: no stage or matches", ErrInvalidSnapshot)
	}
	if _, err := b.topology(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return b, nil
}

// Participant looks a participant up by its bracket id.
func (b *Bracket) Participant(id int) (*Participant, bool) {
	for i := range b.Participants {
		if b.Participants[i].ID == id {
			return &b.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantByRef looks a participant up by the seed id it was created from.
func (b *Bracket) ParticipantByRef(ref string) (*Participant, bool) {
	for i := range b.Participants {
		if b.Participants[i].Ref == ref {
			return &b.Participants[i], true
		}
	}
	return nil, false
}

func (b *Bracket) Match(id int) (*Match, bool) {
	topo, err := b.topology()
	if err != nil {
		return nil, false
	}
	idx, ok := topo.index[id]
	if !ok {
		return nil, false
	}
	return &b.Matches[idx], true
}
