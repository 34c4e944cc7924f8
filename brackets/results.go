package brackets

import (
	"fmt"
	"sort"
)

// RecordResult applies the outcome of a ready match and moves the winner to
// the next round.
func (b *Bracket) RecordResult(matchID int, opponent1, opponent2 Result) error {
	topo, err := b.topology()
	if err != nil {
		return err
	}
	idx, ok := topo.index[matchID]
	if !ok {
		return fmt.Errorf("%w: match %d does not exist", ErrInvalidOperation, matchID)
	}
	m := &b.Matches[idx]

	switch {
	case m.IsBye():
		return fmt.Errorf("%w: match %d is a bye", ErrInvalidOperation, matchID)
	case m.Status == StatusCompleted:
		return fmt.Errorf("%w: match %d is already completed", ErrInvalidOperation, matchID)
	case m.Status != StatusReady:
		return fmt.Errorf("%w: match %d is not ready", ErrInvalidOperation, matchID)
	}

	winner, err := pickWinner(m, opponent1, opponent2)
	if err != nil {
		return err
	}

	applyResult(m.Opponent1, opponent1)
	applyResult(m.Opponent2, opponent2)
	m.Status = StatusCompleted

	id := *winner.ID
	b.forward(m, &Opponent{ID: &id})
	return nil
}

func pickWinner(m *Match, r1, r2 Result) (*Opponent, error) {
	switch {
	case r1.Result == ResultWin && r2.Result == ResultLoss:
		return m.Opponent1, nil
	case r1.Result == ResultLoss && r2.Result == ResultWin:
		return m.Opponent2, nil
	}
	return nil, fmt.Errorf("%w: match %d needs exactly one %q and one %q, got %q and %q",
		ErrInvalidOperation, m.ID, ResultWin, ResultLoss, r1.Result, r2.Result)
}

func applyResult(o *Opponent, r Result) {
	score := r.Score
	o.Score = &score
	o.Result = r.Result
}

// forward places opponent (nil for a bye) in the match fed by m.
func (b *Bracket) forward(m *Match, opponent *Opponent) {
	topo, err := b.topology()
	if err != nil {
		return
	}
	target, slot, ok := topo.nextMatch(m)
	if !ok {
		return
	}
	next := &b.Matches[topo.index[target]]
	if slot == 1 {
		next.Opponent1 = opponent
	} else {
		next.Opponent2 = opponent
	}
	b.settle(next)
}

// settle recomputes the status of m after one of its slots changed and
// pushes byes through.
func (b *Bracket) settle(m *Match) {
	if m.Status == StatusCompleted {
		return
	}

	switch {
	case m.Opponent1 == nil && m.Opponent2 == nil:
		m.Status = StatusLocked
		b.forward(m, nil)
	case m.IsBye():
		m.Status = StatusLocked
		present := m.Opponent1
		if present == nil {
			present = m.Opponent2
		}
		if present.ID != nil {
			id := *present.ID
			b.forward(m, &Opponent{ID: &id})
		}
	case m.Opponent1.ID != nil && m.Opponent2.ID != nil:
		m.Status = StatusReady
	case m.Opponent1.ID != nil || m.Opponent2.ID != nil:
		m.Status = StatusWaiting
	default:
		m.Status = StatusLocked
	}
}

// CurrentStage returns the stage being played. Brackets built here have one.
func (b *Bracket) CurrentStage() (*Stage, error) {
	if len(b.Stages) == 0 {
		return nil, fmt.Errorf("%w: bracket has no stage", ErrInvalidOperation)
	}
	return &b.Stages[0], nil
}

// RoundCount returns the number of rounds of a stage.
func (b *Bracket) RoundCount(stageID int) int {
	count := 0
	for _, r := range b.Rounds {
		if r.StageID == stageID {
			count++
		}
	}
	return count
}

// CurrentRound returns the earliest round of the stage that still has a
// playable match without a result. ok is false once the stage is complete.
func (b *Bracket) CurrentRound(stageID int) (round *Round, ok bool) {
	rounds := make([]*Round, 0, len(b.Rounds))
	for i := range b.Rounds {
		if b.Rounds[i].StageID == stageID {
			rounds = append(rounds, &b.Rounds[i])
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })

	for _, r := range rounds {
		for i := range b.Matches {
			m := &b.Matches[i]
			if m.RoundID == r.ID && !m.IsBye() && m.Status != StatusCompleted {
				return r, true
			}
		}
	}
	return nil, false
}

// CurrentMatches returns the unresolved, non-bye matches of the current round
// ordered by their number.
func (b *Bracket) CurrentMatches(stageID int) []Match {
	round, ok := b.CurrentRound(stageID)
	if !ok {
		return nil
	}

	matches := []Match{}
	for _, m := range b.Matches {
		if m.RoundID == round.ID && !m.IsBye() && m.Status != StatusCompleted {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Number < matches[j].Number })
	return matches
}

// Champion returns the winner of the stage's final, if it has been played.
func (b *Bracket) Champion(stageID int) (*Participant, bool) {
	if _, playing := b.CurrentRound(stageID); playing {
		return nil, false
	}
	last := -1
	var final *Match
	for i := range b.Matches {
		m := &b.Matches[i]
		if m.StageID != stageID {
			continue
		}
		if m.RoundID > last {
			last = m.RoundID
			final = m
		}
	}
	if final == nil {
		return nil, false
	}
	for _, o := range []*Opponent{final.Opponent1, final.Opponent2} {
		if o != nil && o.ID != nil && (o.Result == ResultWin || final.IsBye()) {
			return b.Participant(*o.ID)
		}
	}
	return nil, false
}
