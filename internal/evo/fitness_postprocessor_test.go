package evo

import (
	"math"
	"testing"

	"lifeevo/internal/genome"
)

func TestSizeProportionalPostprocessorFavorsSparseSeeds(t *testing.T) {
	scored := []ScoredGenome{
		{Genome: genome.FromIndices(16, 0, 1), Fitness: 8},
		{Genome: genome.FromIndices(16, 0, 1, 2, 3, 4, 5, 6, 7), Fitness: 8},
		{Genome: genome.FromIndices(16, 0), Fitness: 0},
	}
	out := SizeProportionalPostprocessor{}.Process(scored)

	wantSmall := 8 / math.Pow(2, sizeProportionalEfficiency)
	wantLarge := 8 / math.Pow(8, sizeProportionalEfficiency)
	if math.Abs(out[0].Fitness-wantSmall) > 1e-9 {
		t.Fatalf("unexpected sparse fitness: got=%f want=%f", out[0].Fitness, wantSmall)
	}
	if math.Abs(out[1].Fitness-wantLarge) > 1e-9 {
		t.Fatalf("unexpected dense fitness: got=%f want=%f", out[1].Fitness, wantLarge)
	}
	if out[2].Fitness != 0 {
		t.Fatalf("zero fitness should stay zero, got %f", out[2].Fitness)
	}
}

func TestPostprocessorsCloneInput(t *testing.T) {
	scored := []ScoredGenome{{Genome: genome.FromIndices(4, 0), Fitness: 1}}
	for _, p := range []FitnessPostprocessor{NoopFitnessPostprocessor{}, SizeProportionalPostprocessor{}} {
		out := p.Process(scored)
		out[0].Fitness = 999
		if scored[0].Fitness == 999 {
			t.Fatalf("%s: expected output to be cloned from input", p.Name())
		}
	}
}
