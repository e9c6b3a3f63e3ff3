package automaton

import (
	"fmt"
	"math"
	"sort"
)

// Box is an inclusive bounding rectangle. The zero Box stands for a board
// with no living cells and has width and height 0.
type Box struct {
	MinX, MinY int
	MaxX, MaxY int
	Living     bool
}

func (b Box) Width() int {
	if !b.Living {
		return 0
	}
	return b.MaxX - b.MinX + 1
}

func (b Box) Height() int {
	if !b.Living {
		return 0
	}
	return b.MaxY - b.MinY + 1
}

// Outcome is what a fitness function sees of a finished run.
type Outcome struct {
	InitialBox    Box
	FinalBox      Box
	Steps         int
	InitialLiving int
	FinalLiving   int
	Cells         int
	Stabilized    bool
}

// Growth is the combined increase of bounding box width and height.
func (o Outcome) Growth() int {
	return (o.FinalBox.Width() - o.InitialBox.Width()) + (o.FinalBox.Height() - o.InitialBox.Height())
}

// FitnessFunc maps a run outcome to a score.
type FitnessFunc interface {
	Name() string
	Score(o Outcome) float64
}

// GrowthCubed scores max(0, Scale*(dw+dh)^Exponent + StepWeight*steps).
type GrowthCubed struct {
	Exponent   float64
	Scale      float64
	StepWeight float64
}

func (GrowthCubed) Name() string { return "growth_cubed" }

func (f GrowthCubed) Score(o Outcome) float64 {
	growth := float64(o.Growth())
	// math.Pow rejects negative bases with fractional exponents; keep the sign.
	term := math.Copysign(math.Pow(math.Abs(growth), f.Exponent), growth)
	return math.Max(0, f.Scale*term+f.StepWeight*float64(o.Steps))
}

// GrowthLinear scores max(0, dw+dh+steps).
type GrowthLinear struct{}

func (GrowthLinear) Name() string { return "growth_linear" }

func (GrowthLinear) Score(o Outcome) float64 {
	return math.Max(0, float64(o.Growth()+o.Steps))
}

// LivingRatio scores (final/initial living cells)^2 + steps.
type LivingRatio struct{}

func (LivingRatio) Name() string { return "living_ratio" }

func (LivingRatio) Score(o Outcome) float64 {
	if o.InitialLiving == 0 {
		return 0
	}
	ratio := float64(o.FinalLiving) / float64(o.InitialLiving)
	return ratio*ratio + float64(o.Steps)
}

// DefaultFitness is the canonical bounding-box-growth-cubed function.
func DefaultFitness() FitnessFunc {
	return GrowthCubed{Exponent: 3, Scale: 1, StepWeight: 1}
}

var fitnessByName = map[string]func() FitnessFunc{
	"growth_cubed":  DefaultFitness,
	"growth_linear": func() FitnessFunc { return GrowthLinear{} },
	"living_ratio":  func() FitnessFunc { return LivingRatio{} },
}

// FitnessFromName resolves a fitness function by its Name.
func FitnessFromName(name string) (FitnessFunc, error) {
	if name == "" {
		return DefaultFitness(), nil
	}
	build, ok := fitnessByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown fitness function %q", ErrInvalidConfig, name)
	}
	return build(), nil
}

func FitnessNames() []string {
	names := make([]string, 0, len(fitnessByName))
	for name := range fitnessByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
