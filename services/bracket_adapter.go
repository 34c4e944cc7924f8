package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Dosada05/esports-bracket/brackets"
	"github.com/Dosada05/esports-bracket/models"
)

// Pairing is a playable match emitted by the bracket engine, expressed in
// team ids.
type Pairing struct {
	MatchID int
	Team1ID uuid.UUID
	Team2ID uuid.UUID
}

// BracketAdapter binds the bracket engine to tournaments and teams: seeds are
// team ids, rounds are mapped to stage labels.
type BracketAdapter struct {
	cfg models.BracketConfig
}

func NewBracketAdapter(cfg models.BracketConfig) *BracketAdapter {
	return &BracketAdapter{cfg: cfg}
}

func (a *BracketAdapter) Config() models.BracketConfig {
	return a.cfg
}

// CreateStage seeds teams in the given order into a fresh bracket sized to the
// next power of two.
func (a *BracketAdapter) CreateStage(t *models.Tournament, teams []models.Team) (*brackets.Bracket, error) {
	if len(teams) < 2 {
		return nil, ErrNotEnoughTeams
	}
	if len(teams) > a.cfg.Capacity {
		return nil, ErrTournamentFull
	}

	seeds := make([]brackets.Seed, len(teams))
	for i, team := range teams {
		seeds[i] = brackets.Seed{ID: team.ID.String(), Label: team.TeamName}
	}

	b, err := brackets.CreateStage(t.ID.String(), t.Name, seeds, brackets.StageSettings{
		Size: brackets.NextPowerOfTwo(len(seeds)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBracketOperation, err)
	}
	return b, nil
}

// StageLabel maps a round to its label. A bracket with R rounds uses the last
// R labels, so the final is always the last label.
func (a *BracketAdapter) StageLabel(b *brackets.Bracket, round *brackets.Round) (string, error) {
	total := b.RoundCount(round.StageID)
	idx := len(a.cfg.StageLabels) - total + round.Number - 1
	if idx < 0 || idx >= len(a.cfg.StageLabels) {
		return "", fmt.Errorf("%w: no stage label for round %d of %d", ErrInvalidBracketOperation, round.Number, total)
	}
	return a.cfg.StageLabels[idx], nil
}

// CurrentPairings returns the label and playable matches of the round being
// played. done is true once the final has a result.
func (a *BracketAdapter) CurrentPairings(b *brackets.Bracket) (label string, pairings []Pairing, done bool, err error) {
	stage, err := b.CurrentStage()
	if err != nil {
		return "", nil, false, fmt.Errorf("%w: %v", ErrInvalidBracketOperation, err)
	}
	round, ok := b.CurrentRound(stage.ID)
	if !ok {
		return "", nil, true, nil
	}
	if label, err = a.StageLabel(b, round); err != nil {
		return "", nil, false, err
	}

	for _, m := range b.CurrentMatches(stage.ID) {
		p1, p2 := m.Participants()
		team1, err := a.teamID(b, p1)
		if err != nil {
			return "", nil, false, err
		}
		team2, err := a.teamID(b, p2)
		if err != nil {
			return "", nil, false, err
		}
		pairings = append(pairings, Pairing{MatchID: m.ID, Team1ID: team1, Team2ID: team2})
	}
	return label, pairings, false, nil
}

// RecordWinner feeds a win for winnerID and a loss for the other side of the
// match into the bracket.
func (a *BracketAdapter) RecordWinner(b *brackets.Bracket, matchID int, winnerID uuid.UUID) error {
	m, ok := b.Match(matchID)
	if !ok {
		return fmt.Errorf("%w: match %d is not part of the bracket", ErrInvalidBracketOperation, matchID)
	}
	winner, ok := b.ParticipantByRef(winnerID.String())
	if !ok {
		return fmt.Errorf("%w: team %s is not part of the bracket", ErrInvalidBracketOperation, winnerID)
	}

	p1, p2 := m.Participants()
	var err error
	switch winner.ID {
	case p1:
		err = b.RecordResult(matchID, brackets.Win, brackets.Loss)
	case p2:
		err = b.RecordResult(matchID, brackets.Loss, brackets.Win)
	default:
		return fmt.Errorf("%w: team %s does not play match %d", ErrInvalidBracketOperation, winnerID, matchID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBracketOperation, err)
	}
	return nil
}

// MatchTeams returns the teams the bracket holds for a match, uuid.Nil for an
// undecided slot.
func (a *BracketAdapter) MatchTeams(b *brackets.Bracket, matchID int) (uuid.UUID, uuid.UUID, error) {
	m, ok := b.Match(matchID)
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: match %d is not part of the bracket", ErrInvalidBracketOperation, matchID)
	}
	p1, p2 := m.Participants()
	team1, err := a.teamID(b, p1)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	team2, err := a.teamID(b, p2)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return team1, team2, nil
}

// Champion returns the team that won the final.
func (a *BracketAdapter) Champion(b *brackets.Bracket) (uuid.UUID, bool) {
	stage, err := b.CurrentStage()
	if err != nil {
		return uuid.Nil, false
	}
	p, ok := b.Champion(stage.ID)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(p.Ref)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (a *BracketAdapter) Export(b *brackets.Bracket) ([]byte, error) {
	return b.Export()
}

func (a *BracketAdapter) Import(data []byte) (*brackets.Bracket, error) {
	b, err := brackets.Import(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load bracket snapshot: %w", err)
	}
	return b, nil
}

func (a *BracketAdapter) teamID(b *brackets.Bracket, participantID int) (uuid.UUID, error) {
	if participantID < 0 {
		return uuid.Nil, nil
	}
	p, ok := b.Participant(participantID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: unknown participant %d", ErrInvalidBracketOperation, participantID)
	}
	id, err := uuid.Parse(p.Ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: participant %d has no team reference", ErrInvalidBracketOperation, participantID)
	}
	return id, nil
}
