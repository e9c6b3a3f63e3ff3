package automaton

import (
	"fmt"

	"lifeevo/internal/genome"
)

// State is the lifecycle position of a Simulation.
type State int

const (
	Initialized State = iota
	Stepping
	Stabilized
	TimedOut
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Stepping:
		return "stepping"
	case Stabilized:
		return "stabilized"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether fitness may be read.
func (s State) Terminal() bool { return s == Stabilized || s == TimedOut }

// Simulation is one Game of Life run bound to one genome. It owns its
// buffers and history and must not be shared between goroutines.
type Simulation struct {
	shape     Shape
	neighbors *NeighborTable

	cur []bool
	nxt []bool

	steps   int
	state   State
	history []genome.Genome
	seen    map[string]int

	initialBox    Box
	initialLiving int
}

// New seeds the whole board from g; g must have Width*Height bits.
func New(shape Shape, g genome.Genome) (*Simulation, error) {
	return NewInWindow(shape, FullWindow(shape), g)
}

// NewInWindow seeds the cells covered by window from g and leaves the rest
// of the board dead.
func NewInWindow(shape Shape, window Window, g genome.Genome) (*Simulation, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := window.Validate(shape); err != nil {
		return nil, err
	}
	if g.Len() != window.Bits() {
		return nil, fmt.Errorf("%w: genome has %d bits, seed window needs %d", ErrInvalidConfig, g.Len(), window.Bits())
	}

	s := &Simulation{
		shape:     shape,
		neighbors: Neighborhood(shape),
		cur:       make([]bool, shape.Cells()),
		nxt:       make([]bool, shape.Cells()),
		state:     Initialized,
		seen:      make(map[string]int),
	}
	seed := genome.Decode(g, window.Width, window.Height)
	for y := 0; y < window.Height; y++ {
		for x := 0; x < window.Width; x++ {
			if seed[y*window.Width+x] {
				s.cur[(y+window.OffsetY)*shape.Width+x+window.OffsetX] = true
			}
		}
	}
	s.initialBox = s.BoundingBox()
	s.initialLiving = s.LivingCount()
	s.record()
	return s, nil
}

func (s *Simulation) Shape() Shape { return s.shape }

func (s *Simulation) Steps() int { return s.steps }

func (s *Simulation) State() State { return s.state }

// Neighbors returns the neighbor slots of cell i; see NeighborTable.
func (s *Simulation) Neighbors(i int) []int32 { return s.neighbors.Neighbors(i) }

// Alive reports whether cell i is alive. Unknown cells panic.
func (s *Simulation) Alive(i int) bool {
	if i < 0 || i >= len(s.cur) {
		panic(fmt.Sprintf("automaton: unknown cell %d on %dx%d grid", i, s.shape.Width, s.shape.Height))
	}
	return s.cur[i]
}

// Cells returns a copy of the current alive flags.
func (s *Simulation) Cells() []bool {
	out := make([]bool, len(s.cur))
	copy(out, s.cur)
	return out
}

// Current encodes the current board.
func (s *Simulation) Current() genome.Genome {
	return s.history[len(s.history)-1]
}

// History returns every encoded state so far, the initial one first.
func (s *Simulation) History() []genome.Genome {
	out := make([]genome.Genome, len(s.history))
	copy(out, s.history)
	return out
}

// Step advances one generation. Next flags are computed from cur only and
// the buffers are swapped afterwards.
func (s *Simulation) Step() {
	for i := range s.cur {
		living := 0
		for _, n := range s.neighbors.idx[i*neighborhood : (i+1)*neighborhood] {
			if n != NoNeighbor && s.cur[n] {
				living++
			}
		}
		if s.cur[i] {
			s.nxt[i] = living == 2 || living == 3
		} else {
			s.nxt[i] = living == 3
		}
	}
	s.cur, s.nxt = s.nxt, s.cur
	s.steps++
	if s.state == Initialized {
		s.state = Stepping
	}
	s.record()
}

// IsStabilized reports whether the latest state already occurred earlier in
// the history.
func (s *Simulation) IsStabilized() bool {
	first := s.seen[s.Current().Key()]
	return first < len(s.history)-1
}

// RunToCompletion steps until the board repeats a previous state or maxSteps
// is reached, and returns the terminal state.
func (s *Simulation) RunToCompletion(maxSteps int) State {
	for !s.IsStabilized() && s.steps < maxSteps {
		s.Step()
	}
	if s.IsStabilized() {
		s.state = Stabilized
	} else {
		s.state = TimedOut
	}
	return s.state
}

func (s *Simulation) LivingCount() int {
	total := 0
	for _, alive := range s.cur {
		if alive {
			total++
		}
	}
	return total
}

// BoundingBox returns the smallest rectangle holding every living cell, or
// the zero Box for a dead board.
func (s *Simulation) BoundingBox() Box {
	box := Box{MinX: s.shape.Width, MinY: s.shape.Height, MaxX: -1, MaxY: -1}
	for i, alive := range s.cur {
		if !alive {
			continue
		}
		x, y := i%s.shape.Width, i/s.shape.Width
		box.MinX = min(box.MinX, x)
		box.MaxX = max(box.MaxX, x)
		box.MinY = min(box.MinY, y)
		box.MaxY = max(box.MaxY, y)
	}
	if box.MaxX < 0 {
		return Box{}
	}
	box.Living = true
	return box
}

// Outcome summarizes the run for fitness functions.
func (s *Simulation) Outcome() Outcome {
	return Outcome{
		InitialBox:    s.initialBox,
		FinalBox:      s.BoundingBox(),
		Steps:         s.steps,
		InitialLiving: s.initialLiving,
		FinalLiving:   s.LivingCount(),
		Cells:         s.shape.Cells(),
		Stabilized:    s.IsStabilized(),
	}
}

// Fitness scores the run with the canonical growth function.
func (s *Simulation) Fitness(strict bool) float64 {
	return s.FitnessWith(DefaultFitness(), strict)
}

// FitnessWith scores the run with fn. Under strict scoring a run that has
// not stabilized scores zero.
func (s *Simulation) FitnessWith(fn FitnessFunc, strict bool) float64 {
	outcome := s.Outcome()
	if strict && !outcome.Stabilized {
		return 0
	}
	return fn.Score(outcome)
}

func (s *Simulation) record() {
	current := genome.Encode(s.cur)
	key := current.Key()
	if _, ok := s.seen[key]; !ok {
		s.seen[key] = len(s.history)
	}
	s.history = append(s.history, current)
}
