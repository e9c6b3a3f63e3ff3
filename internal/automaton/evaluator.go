package automaton

import (
	"lifeevo/internal/genome"
)

// Result is the terminal view of one evaluated genome.
type Result struct {
	Final      genome.Genome
	Steps      int
	State      State
	Fitness    float64
	InitialBox Box
	FinalBox   Box
}

// Evaluator runs one fresh Simulation per genome. It holds only immutable
// configuration and is safe for concurrent use.
type Evaluator struct {
	Shape    Shape
	Window   Window
	MaxSteps int
	Strict   bool
	Fitness  FitnessFunc
}

func (e Evaluator) Validate() error {
	if err := e.Shape.Validate(); err != nil {
		return err
	}
	return e.Window.Validate(e.Shape)
}

// GenomeBits is the genome length this evaluator accepts.
func (e Evaluator) GenomeBits() int { return e.Window.Bits() }

func (e Evaluator) Evaluate(g genome.Genome) (Result, error) {
	sim, err := NewInWindow(e.Shape, e.Window, g)
	if err != nil {
		return Result{}, err
	}
	state := sim.RunToCompletion(e.MaxSteps)
	fn := e.Fitness
	if fn == nil {
		fn = DefaultFitness()
	}
	outcome := sim.Outcome()
	return Result{
		Final:      sim.Current(),
		Steps:      sim.Steps(),
		State:      state,
		Fitness:    sim.FitnessWith(fn, e.Strict),
		InitialBox: outcome.InitialBox,
		FinalBox:   outcome.FinalBox,
	}, nil
}
