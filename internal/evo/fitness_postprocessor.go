package evo

import "math"

const sizeProportionalEfficiency = 0.05

// FitnessPostprocessor adjusts fitness values after evaluation and before
// selection.
type FitnessPostprocessor interface {
	Name() string
	Process(scored []ScoredGenome) []ScoredGenome
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(scored []ScoredGenome) []ScoredGenome {
	return cloneScored(scored)
}

// SizeProportionalPostprocessor favors sparser seeds by dividing positive
// fitness by a small power of the seed's living cell count.
type SizeProportionalPostprocessor struct{}

func (SizeProportionalPostprocessor) Name() string {
	return "size_proportional"
}

func (SizeProportionalPostprocessor) Process(scored []ScoredGenome) []ScoredGenome {
	out := cloneScored(scored)
	for i := range out {
		living := float64(out[i].Genome.PopCount())
		if living < 1 {
			living = 1
		}
		if out[i].Fitness > 0 {
			out[i].Fitness = out[i].Fitness / math.Pow(living, sizeProportionalEfficiency)
		}
	}
	return out
}
