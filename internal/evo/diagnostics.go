package evo

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"lifeevo/internal/automaton"
)

type GenerationDiagnostics struct {
	Generation      int           `json:"generation"`
	BestFitness     float64       `json:"best_fitness"`
	MeanFitness     float64       `json:"mean_fitness"`
	MinFitness      float64       `json:"min_fitness"`
	MedianFitness   float64       `json:"median_fitness"`
	StdDevFitness   float64       `json:"stddev_fitness"`
	MeanSteps       float64       `json:"mean_steps"`
	Stabilized      int           `json:"stabilized"`
	TimedOut        int           `json:"timed_out"`
	UniqueGenomes   int           `json:"unique_genomes"`
	MeanLivingCells float64       `json:"mean_living_cells"`
	Duration        time.Duration `json:"duration_ns"`
}

func summarizeGeneration(scored []ScoredGenome, generation int, elapsed time.Duration) GenerationDiagnostics {
	diag := GenerationDiagnostics{Generation: generation, Duration: elapsed}
	if len(scored) == 0 {
		return diag
	}

	fitness := make([]float64, len(scored))
	steps := make([]float64, len(scored))
	living := make([]float64, len(scored))
	unique := make(map[string]struct{}, len(scored))
	for i, item := range scored {
		fitness[i] = item.Fitness
		steps[i] = float64(item.Steps)
		living[i] = float64(item.Genome.PopCount())
		unique[item.Genome.Key()] = struct{}{}
		switch item.State {
		case automaton.Stabilized:
			diag.Stabilized++
		case automaton.TimedOut:
			diag.TimedOut++
		}
	}

	diag.BestFitness = scored[BestIndex(scored)].Fitness
	diag.MeanFitness, diag.StdDevFitness = stat.MeanStdDev(fitness, nil)
	if len(scored) < 2 {
		diag.StdDevFitness = 0
	}
	diag.MeanSteps = stat.Mean(steps, nil)
	diag.MeanLivingCells = stat.Mean(living, nil)
	diag.UniqueGenomes = len(unique)

	slices.Sort(fitness)
	diag.MinFitness = fitness[0]
	diag.MedianFitness = stat.Quantile(0.5, stat.Empirical, fitness, nil)
	return diag
}
