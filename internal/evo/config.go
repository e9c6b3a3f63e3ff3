package evo

import (
	"errors"
	"fmt"
	"log/slog"

	"lifeevo/internal/automaton"
)

var ErrInvalidConfig = errors.New("invalid evolution config")

const (
	DefaultGridWidth          = 50
	DefaultGridHeight         = 50
	DefaultSeedWidth          = 10
	DefaultSeedHeight         = 10
	DefaultPopulationSize     = 50
	DefaultGenerations        = 30
	DefaultBestPromotionCount = 2
	DefaultNewVarianceCount   = 4
	DefaultMutationChance     = 0.1
	DefaultLivingChance       = 0.3
	DefaultMaxSteps           = 500
	DefaultWorkers            = 4
	DefaultParents            = 2
)

// Config drives one evolutionary run. A zero Window places the genome over
// the whole board.
type Config struct {
	Shape              automaton.Shape
	Window             automaton.Window
	PopulationSize     int
	Generations        int
	BestPromotionCount int
	NewVarianceCount   int
	MutationChance     float64
	LivingChance       float64
	MaxSteps           int
	Strict             bool
	Fitness            automaton.FitnessFunc
	Workers            int
	Parents            int
	Selector           Selector
	Postprocessor      FitnessPostprocessor
	// Seed makes breeding deterministic when non-zero.
	Seed     uint64
	Observer Observer
	Logger   *slog.Logger
}

func DefaultConfig() Config {
	shape := automaton.Shape{Width: DefaultGridWidth, Height: DefaultGridHeight}
	return Config{
		Shape:              shape,
		Window:             automaton.CenteredWindow(shape, DefaultSeedWidth, DefaultSeedHeight),
		PopulationSize:     DefaultPopulationSize,
		Generations:        DefaultGenerations,
		BestPromotionCount: DefaultBestPromotionCount,
		NewVarianceCount:   DefaultNewVarianceCount,
		MutationChance:     DefaultMutationChance,
		LivingChance:       DefaultLivingChance,
		MaxSteps:           DefaultMaxSteps,
		Strict:             true,
		Fitness:            automaton.DefaultFitness(),
		Workers:            DefaultWorkers,
		Parents:            DefaultParents,
	}
}

// Validate rejects unusable settings before any simulation runs. Grid and
// window problems wrap automaton.ErrInvalidConfig as well as ErrInvalidConfig.
func (c Config) Validate() error {
	if err := c.Shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.window().Validate(c.Shape); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0", ErrInvalidConfig)
	}
	if c.Generations < 0 {
		return fmt.Errorf("%w: generations must be >= 0", ErrInvalidConfig)
	}
	if c.BestPromotionCount < 0 || c.NewVarianceCount < 0 {
		return fmt.Errorf("%w: elite and variance counts must be >= 0", ErrInvalidConfig)
	}
	if c.BestPromotionCount+c.NewVarianceCount > c.PopulationSize {
		return fmt.Errorf("%w: elites (%d) plus variance (%d) exceed population size %d",
			ErrInvalidConfig, c.BestPromotionCount, c.NewVarianceCount, c.PopulationSize)
	}
	if c.MutationChance < 0 || c.MutationChance > 1 {
		return fmt.Errorf("%w: mutation chance must be in [0, 1]", ErrInvalidConfig)
	}
	if c.LivingChance <= 0 || c.LivingChance > 1 {
		return fmt.Errorf("%w: living chance must be in (0, 1]", ErrInvalidConfig)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be > 0", ErrInvalidConfig)
	}
	if c.Parents != 0 && c.Parents < 2 {
		return fmt.Errorf("%w: parents must be >= 2", ErrInvalidConfig)
	}
	if c.Parents > c.window().Bits() {
		return fmt.Errorf("%w: %d parents exceed genome length %d", ErrInvalidConfig, c.Parents, c.window().Bits())
	}
	return nil
}

func (c Config) window() automaton.Window {
	if c.Window == (automaton.Window{}) {
		return automaton.FullWindow(c.Shape)
	}
	return c.Window
}

// Evaluator returns the per-genome evaluator for this configuration.
func (c Config) Evaluator() automaton.Evaluator {
	fitness := c.Fitness
	if fitness == nil {
		fitness = automaton.DefaultFitness()
	}
	return automaton.Evaluator{
		Shape:    c.Shape,
		Window:   c.window(),
		MaxSteps: c.MaxSteps,
		Strict:   c.Strict,
		Fitness:  fitness,
	}
}

// Breed returns the breeding parameters for this configuration.
func (c Config) Breed() BreedConfig {
	selector := c.Selector
	if selector == nil {
		selector = RouletteSelector{}
	}
	parents := c.Parents
	if parents == 0 {
		parents = DefaultParents
	}
	window := c.window()
	return BreedConfig{
		PopulationSize:     c.PopulationSize,
		BestPromotionCount: c.BestPromotionCount,
		NewVarianceCount:   c.NewVarianceCount,
		MutationChance:     c.MutationChance,
		LivingChance:       c.LivingChance,
		SeedWidth:          window.Width,
		SeedHeight:         window.Height,
		Selector:           selector,
		Crossover:          CrossoverFor(parents),
	}
}
