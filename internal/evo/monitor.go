package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"lifeevo/internal/genome"
)

// pcgStream separates the two PCG words derived from a single seed.
const pcgStream = 0x9e3779b97f4a7c15

// Monitor runs the generation loop: evaluate, score, report, breed.
type Monitor struct {
	cfg       Config
	rng       *rand.Rand
	scheduler BatchScheduler
	breed     BreedConfig
	logger    *slog.Logger
}

func NewMonitor(cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:       cfg,
		rng:       newRand(cfg.Seed),
		scheduler: BatchScheduler{Workers: cfg.Workers, Evaluator: cfg.Evaluator()},
		breed:     cfg.Breed(),
		logger:    logger,
	}, nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// Run evolves the configured number of generations, then evaluates the last
// bred population once more and reports its best genome as the result.
// ctx is checked between generations only.
func (m *Monitor) Run(ctx context.Context) (RunResult, error) {
	window := m.cfg.window()
	m.logger.Info("evolution started",
		"grid", fmt.Sprintf("%dx%d", m.cfg.Shape.Width, m.cfg.Shape.Height),
		"seed_window", fmt.Sprintf("%dx%d", window.Width, window.Height),
		"population", m.cfg.PopulationSize,
		"generations", m.cfg.Generations,
		"workers", m.cfg.Workers,
		"selection", m.breed.Selector.Name(),
		"crossover", m.breed.Crossover.Name(),
		"fitness", m.scheduler.Evaluator.Fitness.Name(),
	)

	population := FillPopulation(
		m.rng,
		CreatePopulation(m.rng, m.cfg.PopulationSize, window.Width, window.Height, m.cfg.LivingChance),
		m.cfg.PopulationSize, window.Width, window.Height, m.cfg.LivingChance,
	)

	records := make([]GenerationRecord, 0, m.cfg.Generations)
	for gen := 1; gen <= m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		started := time.Now()
		scored, err := m.evaluate(ctx, population)
		if err != nil {
			return RunResult{}, fmt.Errorf("evaluate generation %d: %w", gen, err)
		}
		record := GenerationRecord{
			Generation:  gen,
			Best:        scored[BestIndex(scored)],
			Diagnostics: summarizeGeneration(scored, gen, time.Since(started)),
		}
		records = append(records, record)
		m.logger.Debug("generation evaluated", "generation", gen, "best_fitness", record.Best.Fitness)
		if m.cfg.Observer != nil {
			m.cfg.Observer.OnGeneration(record)
		}

		population, err = ProduceNextGeneration(m.rng, scored, m.breed)
		if err != nil {
			return RunResult{}, fmt.Errorf("breed generation %d: %w", gen, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}
	scored, err := m.evaluate(ctx, population)
	if err != nil {
		return RunResult{}, fmt.Errorf("evaluate final population: %w", err)
	}
	result := RunResult{
		Best:        scored[BestIndex(scored)],
		Generations: records,
	}
	m.logger.Info("evolution finished", "best_fitness", result.Best.Fitness, "best_steps", result.Best.Steps)
	if m.cfg.Observer != nil {
		m.cfg.Observer.OnResult(result)
	}
	return result, nil
}

func (m *Monitor) evaluate(ctx context.Context, population []genome.Genome) ([]ScoredGenome, error) {
	scored, err := m.scheduler.Evaluate(ctx, population)
	if err != nil {
		return nil, err
	}
	return m.cfg.Postprocessor.Process(scored), nil
}
