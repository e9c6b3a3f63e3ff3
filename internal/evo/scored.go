package evo

import (
	"lifeevo/internal/automaton"
	"lifeevo/internal/genome"
)

type ScoredGenome struct {
	Genome  genome.Genome
	Fitness float64
	Steps   int
	State   automaton.State
}

// BestIndex returns the index of the highest fitness, preferring the first
// occurrence on ties. It returns -1 for an empty slice.
func BestIndex(scored []ScoredGenome) int {
	best := -1
	for i, item := range scored {
		if best < 0 || item.Fitness > scored[best].Fitness {
			best = i
		}
	}
	return best
}

func genomesOf(scored []ScoredGenome) []genome.Genome {
	out := make([]genome.Genome, len(scored))
	for i, item := range scored {
		out[i] = item.Genome
	}
	return out
}

func cloneScored(scored []ScoredGenome) []ScoredGenome {
	out := make([]ScoredGenome, len(scored))
	copy(out, scored)
	return out
}
