package models

import "fmt"

// BracketConfig describes how large a bracket may get and how its rounds are
// labelled. StageLabels are ordered from the widest round to the final.
type BracketConfig struct {
	Capacity    int
	StageLabels []string
}

func DefaultBracketConfig() BracketConfig {
	return BracketConfig{
		Capacity:    16,
		StageLabels: []string{"1/8", "1/4", "1/2", "1"},
	}
}

func (c BracketConfig) Validate() error {
	if c.Capacity < 2 || c.Capacity&(c.Capacity-1) != 0 {
		return fmt.Errorf("bracket capacity must be a power of two >= 2, got %d", c.Capacity)
	}
	rounds := 0
	for n := c.Capacity; n > 1; n >>= 1 {
		rounds++
	}
	if len(c.StageLabels) < rounds {
		return fmt.Errorf("bracket capacity %d needs %d stage labels, got %d", c.Capacity, rounds, len(c.StageLabels))
	}
	return nil
}

// StageIndex returns the position of label in StageLabels or -1.
func (c BracketConfig) StageIndex(label string) int {
	for i, l := range c.StageLabels {
		if l == label {
			return i
		}
	}
	return -1
}
