package evo

import (
	"fmt"
	"math/rand/v2"

	"lifeevo/internal/genome"
)

// CreatePopulation draws size random genomes and drops the dead ones, so the
// result may be shorter than size.
func CreatePopulation(rng *rand.Rand, size, width, height int, livingChance float64) []genome.Genome {
	population := make([]genome.Genome, 0, size)
	for i := 0; i < size; i++ {
		population = append(population, genome.Random(rng, width, height, livingChance))
	}
	return DropDead(population)
}

// FillPopulation tops population up with fresh random genomes until it holds
// exactly size live genomes. Extra genomes are cut from the end.
func FillPopulation(rng *rand.Rand, population []genome.Genome, size, width, height int, livingChance float64) []genome.Genome {
	out := DropDead(population)
	for len(out) < size {
		out = append(out, CreatePopulation(rng, size-len(out), width, height, livingChance)...)
	}
	return out[:size]
}

// DropDead filters out all-zero genomes, keeping order.
func DropDead(population []genome.Genome) []genome.Genome {
	out := make([]genome.Genome, 0, len(population))
	for _, g := range population {
		if !g.IsZero() {
			out = append(out, g)
		}
	}
	return out
}

type BreedConfig struct {
	PopulationSize     int
	BestPromotionCount int
	NewVarianceCount   int
	MutationChance     float64
	LivingChance       float64
	SeedWidth          int
	SeedHeight         int
	Selector           Selector
	Crossover          Crossover
}

// ChildCount is the number of bred children per generation.
func (c BreedConfig) ChildCount() int {
	return c.PopulationSize - c.BestPromotionCount - c.NewVarianceCount
}

// ProduceNextGeneration assembles elites, fresh random genomes and bred
// children, drops dead genomes and tops the result up to PopulationSize.
func ProduceNextGeneration(rng *rand.Rand, scored []ScoredGenome, cfg BreedConfig) ([]genome.Genome, error) {
	if len(scored) == 0 {
		return nil, fmt.Errorf("cannot breed from an empty population")
	}
	if cfg.ChildCount() < 0 {
		return nil, fmt.Errorf("%w: elites (%d) and variance (%d) exceed population size %d",
			ErrInvalidConfig, cfg.BestPromotionCount, cfg.NewVarianceCount, cfg.PopulationSize)
	}
	selector := cfg.Selector
	if selector == nil {
		selector = RouletteSelector{}
	}
	crossover := cfg.Crossover
	if crossover == nil {
		crossover = SinglePointCrossover{}
	}

	next := make([]genome.Genome, 0, cfg.PopulationSize)
	best := scored[BestIndex(scored)].Genome
	for i := 0; i < cfg.BestPromotionCount; i++ {
		next = append(next, best)
	}
	for i := 0; i < cfg.NewVarianceCount; i++ {
		next = append(next, genome.Random(rng, cfg.SeedWidth, cfg.SeedHeight, cfg.LivingChance))
	}
	for i := 0; i < cfg.ChildCount(); i++ {
		parents, err := selector.Select(rng, scored, crossover.Parents())
		if err != nil {
			return nil, err
		}
		child, err := crossover.Cross(rng, genomesOf(parents))
		if err != nil {
			return nil, err
		}
		next = append(next, Mutate(rng, child, cfg.MutationChance))
	}

	return FillPopulation(rng, next, cfg.PopulationSize, cfg.SeedWidth, cfg.SeedHeight, cfg.LivingChance), nil
}
