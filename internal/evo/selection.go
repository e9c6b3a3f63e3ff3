package evo

import (
	"fmt"
	"math/rand/v2"
)

// Selector draws breeding parents from an evaluated population.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, scored []ScoredGenome, count int) ([]ScoredGenome, error)
}

// RouletteSelector samples parents with probability proportional to their
// shifted fitness. Draws are independent, so one genome may be picked for
// every slot.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, scored []ScoredGenome, count int) ([]ScoredGenome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("cannot select from an empty population")
	}
	table := CumulativeTable(scored)
	out := make([]ScoredGenome, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, scored[PickCumulative(table, rng.Float64())])
	}
	return out, nil
}

// CumulativeTable returns running selection probabilities in population
// order. Fitness values are shifted by max(0, -min)+1 so every genome keeps
// a non-zero share.
func CumulativeTable(scored []ScoredGenome) []float64 {
	if len(scored) == 0 {
		return nil
	}
	minFitness := scored[0].Fitness
	for _, item := range scored[1:] {
		minFitness = min(minFitness, item.Fitness)
	}
	shift := max(0, -minFitness) + 1

	total := 0.0
	for _, item := range scored {
		total += item.Fitness + shift
	}
	table := make([]float64, len(scored))
	running := 0.0
	for i, item := range scored {
		running += (item.Fitness + shift) / total
		table[i] = running
	}
	return table
}

// PickCumulative returns the first bucket whose cumulative value exceeds u.
// The first bucket starts at zero; rounding that leaves the last boundary
// below u falls back to the last bucket.
func PickCumulative(table []float64, u float64) int {
	for i, limit := range table {
		if u < limit {
			return i
		}
	}
	return len(table) - 1
}

// TournamentSelector samples TournamentSize genomes uniformly and keeps the
// fittest of them for each draw.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Select(rng *rand.Rand, scored []ScoredGenome, count int) ([]ScoredGenome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("cannot select from an empty population")
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > len(scored) {
		tournamentSize = len(scored)
	}

	out := make([]ScoredGenome, 0, count)
	for i := 0; i < count; i++ {
		best := scored[rng.IntN(len(scored))]
		for j := 1; j < tournamentSize; j++ {
			candidate := scored[rng.IntN(len(scored))]
			if candidate.Fitness > best.Fitness {
				best = candidate
			}
		}
		out = append(out, best)
	}
	return out, nil
}
