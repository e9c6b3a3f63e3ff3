// Package render draws boards as plain text.
package render

import (
	"fmt"
	"io"
	"strings"

	"lifeevo/internal/automaton"
	"lifeevo/internal/genome"
)

type Options struct {
	Alive rune
	Dead  rune
	// Crop trims every frame to the union bounding box of the replay plus
	// Margin cells on each side.
	Crop   bool
	Margin int
}

func DefaultOptions() Options {
	return Options{Alive: '#', Dead: '.', Crop: true, Margin: 1}
}

type Frame struct {
	Step   int
	Living int
	Text   string
}

type Replay struct {
	Frames []Frame
	State  automaton.State
	Steps  int
}

// Region is an inclusive cell rectangle.
type Region struct {
	MinX, MinY, MaxX, MaxY int
}

// Grid renders a row-major board of width columns.
func Grid(cells []bool, width int, region Region, opts Options) string {
	opts = withDefaults(opts)
	var b strings.Builder
	for y := region.MinY; y <= region.MaxY; y++ {
		for x := region.MinX; x <= region.MaxX; x++ {
			if cells[y*width+x] {
				b.WriteRune(opts.Alive)
			} else {
				b.WriteRune(opts.Dead)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Seed renders a genome as its width x height seed pattern.
func Seed(g genome.Genome, width, height int, opts Options) string {
	return Grid(genome.Decode(g, width, height), width, Region{MaxX: width - 1, MaxY: height - 1}, opts)
}

// Simulate runs g to completion and renders every recorded state.
func Simulate(shape automaton.Shape, window automaton.Window, g genome.Genome, maxSteps int, opts Options) (Replay, error) {
	sim, err := automaton.NewInWindow(shape, window, g)
	if err != nil {
		return Replay{}, err
	}
	state := sim.RunToCompletion(maxSteps)
	history := sim.History()

	boards := make([][]bool, len(history))
	for i, h := range history {
		boards[i] = genome.Decode(h, shape.Width, shape.Height)
	}
	region := Region{MaxX: shape.Width - 1, MaxY: shape.Height - 1}
	if opts.Crop {
		region = cropRegion(boards, shape, opts.Margin)
	}

	frames := make([]Frame, len(boards))
	for i, cells := range boards {
		frames[i] = Frame{Step: i, Living: history[i].PopCount(), Text: Grid(cells, shape.Width, region, opts)}
	}
	return Replay{Frames: frames, State: state, Steps: sim.Steps()}, nil
}

// WriteReplay prints frames with a one-line header each. every > 1 skips
// intermediate frames; the last frame is always printed.
func WriteReplay(w io.Writer, replay Replay, every int) error {
	if every < 1 {
		every = 1
	}
	for i, frame := range replay.Frames {
		if i%every != 0 && i != len(replay.Frames)-1 {
			continue
		}
		if _, err := fmt.Fprintf(w, "step %d living=%d\n%s\n", frame.Step, frame.Living, frame.Text); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "final state=%s steps=%d\n", replay.State, replay.Steps)
	return err
}

func cropRegion(boards [][]bool, shape automaton.Shape, margin int) Region {
	region := Region{MinX: shape.Width, MinY: shape.Height, MaxX: -1, MaxY: -1}
	for _, cells := range boards {
		for i, alive := range cells {
			if !alive {
				continue
			}
			x, y := i%shape.Width, i/shape.Width
			region.MinX = min(region.MinX, x)
			region.MaxX = max(region.MaxX, x)
			region.MinY = min(region.MinY, y)
			region.MaxY = max(region.MaxY, y)
		}
	}
	if region.MaxX < 0 {
		return Region{MaxX: shape.Width - 1, MaxY: shape.Height - 1}
	}
	return Region{
		MinX: max(0, region.MinX-margin),
		MinY: max(0, region.MinY-margin),
		MaxX: min(shape.Width-1, region.MaxX+margin),
		MaxY: min(shape.Height-1, region.MaxY+margin),
	}
}

func withDefaults(opts Options) Options {
	if opts.Alive == 0 {
		opts.Alive = '#'
	}
	if opts.Dead == 0 {
		opts.Dead = '.'
	}
	return opts
}
