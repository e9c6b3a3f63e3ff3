package evo

import (
	"errors"
	"math/rand/v2"
	"testing"

	"lifeevo/internal/genome"
)

func TestCreatePopulationDropsDeadGenomes(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	population := CreatePopulation(rng, 200, 1, 1, 0.5)
	if len(population) == 0 || len(population) >= 200 {
		t.Fatalf("expected some dead single-cell genomes to be dropped, got %d", len(population))
	}
	for i, g := range population {
		if g.IsZero() {
			t.Fatalf("dead genome at index %d", i)
		}
	}
}

func TestFillPopulationTopsUpToExactSize(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	seed := ones(9)
	population := FillPopulation(rng, []genome.Genome{genome.New(9), seed, genome.New(9)}, 5, 3, 3, 0.3)
	if len(population) != 5 {
		t.Fatalf("unexpected population size: got=%d want=5", len(population))
	}
	if !population[0].Equal(seed) {
		t.Fatal("expected surviving genomes to keep their order")
	}
	for i, g := range population {
		if g.IsZero() || g.Len() != 9 {
			t.Fatalf("unexpected genome at index %d: %s", i, g)
		}
	}
}

func TestProduceNextGenerationSizeContract(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 16))
	scored := make([]ScoredGenome, 10)
	for i := range scored {
		scored[i] = ScoredGenome{Genome: genome.Random(rng, 4, 4, 0.5), Fitness: float64(i % 4)}
	}
	scored[3].Genome = genome.FromIndices(16, 1, 2, 3)
	scored[7].Genome = genome.FromIndices(16, 4, 5)
	scored[3].Fitness, scored[7].Fitness = 100, 100

	cfg := BreedConfig{
		PopulationSize:     10,
		BestPromotionCount: 2,
		NewVarianceCount:   3,
		MutationChance:     0.5,
		LivingChance:       0.3,
		SeedWidth:          4,
		SeedHeight:         4,
	}
	for round := 0; round < 20; round++ {
		next, err := ProduceNextGeneration(rng, scored, cfg)
		if err != nil {
			t.Fatalf("produce next generation: %v", err)
		}
		if len(next) != cfg.PopulationSize {
			t.Fatalf("unexpected population size: got=%d want=%d", len(next), cfg.PopulationSize)
		}
		for i := 0; i < cfg.BestPromotionCount; i++ {
			if !next[i].Equal(scored[3].Genome) {
				t.Fatalf("elite %d is not the first best genome", i)
			}
		}
		for i, g := range next {
			if g.IsZero() {
				t.Fatalf("dead genome at index %d", i)
			}
		}
	}
}

func TestProduceNextGenerationWithChunkedCrossover(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 18))
	scored := scoredWithFitness(1, 2, 3, 4)
	next, err := ProduceNextGeneration(rng, scored, BreedConfig{
		PopulationSize:     6,
		BestPromotionCount: 1,
		LivingChance:       0.5,
		SeedWidth:          8,
		SeedHeight:         1,
		Crossover:          CrossoverFor(3),
	})
	if err != nil {
		t.Fatalf("produce next generation: %v", err)
	}
	if len(next) != 6 {
		t.Fatalf("unexpected population size: got=%d want=6", len(next))
	}
}

func TestProduceNextGenerationRejectsOversizedElites(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	_, err := ProduceNextGeneration(rng, scoredWithFitness(1), BreedConfig{
		PopulationSize:     3,
		BestPromotionCount: 2,
		NewVarianceCount:   2,
		SeedWidth:          8,
		SeedHeight:         1,
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}
