package brackets

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// topology is the elimination graph of a bracket: every match has an edge to
// the match its winner advances to. It is derived from rounds and match
// numbers and never serialized.
type topology struct {
	graph.Graph[int, int]
	index        map[int]int // match id -> position in Bracket.Matches
	next         map[int]map[int]graph.Edge[int]
	roundNumbers map[int]int // round id -> round number
}

func (b *Bracket) topology() (*topology, error) {
	if b.topo != nil {
		return b.topo, nil
	}

	t := &topology{
		Graph:        graph.New(graph.IntHash, graph.Directed(), graph.PreventCycles()),
		index:        make(map[int]int, len(b.Matches)),
		roundNumbers: make(map[int]int, len(b.Rounds)),
	}
	for _, r := range b.Rounds {
		t.roundNumbers[r.ID] = r.Number
	}

	type slot struct{ stage, round, number int }
	byPosition := make(map[slot]int, len(b.Matches))

	for i, m := range b.Matches {
		if _, dup := t.index[m.ID]; dup {
			return nil, fmt.Errorf("duplicate match id %d", m.ID)
		}
		roundNumber, ok := t.roundNumbers[m.RoundID]
		if !ok {
			return nil, fmt.Errorf("match %d references unknown round %d", m.ID, m.RoundID)
		}
		t.index[m.ID] = i
		byPosition[slot{m.StageID, roundNumber, m.Number}] = m.ID
		if err := t.AddVertex(m.ID); err != nil {
			return nil, fmt.Errorf("failed to add match %d: %w", m.ID, err)
		}
	}

	for _, m := range b.Matches {
		roundNumber := t.roundNumbers[m.RoundID]
		target, ok := byPosition[slot{m.StageID, roundNumber + 1, (m.Number + 1) / 2}]
		if !ok {
			continue
		}
		if err := t.AddEdge(m.ID, target); err != nil {
			return nil, fmt.Errorf("failed to link match %d to %d: %w", m.ID, target, err)
		}
	}

	next, err := t.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	t.next = next

	b.topo = t
	return t, nil
}

// nextMatch returns the match the winner of m advances to and the slot
// (1 or 2) it lands in. Odd-numbered matches feed the first slot.
func (t *topology) nextMatch(m *Match) (int, int, bool) {
	for target := range t.next[m.ID] {
		if m.Number%2 == 1 {
			return target, 1, true
		}
		return target, 2, true
	}
	return 0, 0, false
}
