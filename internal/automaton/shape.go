package automaton

import (
	"errors"
	"fmt"
	"sync"
)

// NoNeighbor marks an unused slot in a neighbor table row.
const NoNeighbor int32 = -1

const neighborhood = 8

var ErrInvalidConfig = errors.New("invalid automaton config")

// Shape identifies a grid geometry. Neighbor tables are shared by every run
// with an equal Shape.
type Shape struct {
	Width    int
	Height   int
	Toroidal bool
}

func (s Shape) Cells() int { return s.Width * s.Height }

func (s Shape) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d must have positive dimensions", ErrInvalidConfig, s.Width, s.Height)
	}
	return nil
}

// NeighborTable holds up to eight Moore neighbors per cell, flattened as
// cell*8+k. Missing edge neighbors are NoNeighbor.
type NeighborTable struct {
	shape Shape
	idx   []int32
}

// Neighbors returns the neighbor slots of cell i. Asking for a cell outside
// the grid is a programming error and panics.
func (t *NeighborTable) Neighbors(i int) []int32 {
	if i < 0 || i >= t.shape.Cells() {
		panic(fmt.Sprintf("automaton: unknown cell %d on %dx%d grid", i, t.shape.Width, t.shape.Height))
	}
	return t.idx[i*neighborhood : (i+1)*neighborhood]
}

var offsets = [neighborhood][2]int{
	{0, 1}, {0, -1}, {1, 0}, {1, 1}, {1, -1}, {-1, 0}, {-1, 1}, {-1, -1},
}

var tableCache sync.Map // Shape -> *NeighborTable

// Neighborhood returns the cached neighbor table for shape, building it on
// first use.
func Neighborhood(shape Shape) *NeighborTable {
	if cached, ok := tableCache.Load(shape); ok {
		return cached.(*NeighborTable)
	}
	table := buildNeighborTable(shape)
	actual, _ := tableCache.LoadOrStore(shape, table)
	return actual.(*NeighborTable)
}

func buildNeighborTable(shape Shape) *NeighborTable {
	w, h := shape.Width, shape.Height
	idx := make([]int32, w*h*neighborhood)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := (y*w + x) * neighborhood
			for k, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if shape.Toroidal {
					nx = (nx%w + w) % w
					ny = (ny%h + h) % h
				}
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					idx[base+k] = NoNeighbor
					continue
				}
				idx[base+k] = int32(ny*w + nx)
			}
		}
	}
	return &NeighborTable{shape: shape, idx: idx}
}

// Window places a genome onto a region of the board.
type Window struct {
	Width   int
	Height  int
	OffsetX int
	OffsetY int
}

// FullWindow covers the whole board, so genome bits map 1:1 onto cells.
func FullWindow(shape Shape) Window {
	return Window{Width: shape.Width, Height: shape.Height}
}

// CenteredWindow places a width x height seed region in the middle of the
// board.
func CenteredWindow(shape Shape, width, height int) Window {
	return Window{
		Width:   width,
		Height:  height,
		OffsetX: (shape.Width - width) / 2,
		OffsetY: (shape.Height - height) / 2,
	}
}

func (w Window) Bits() int { return w.Width * w.Height }

func (w Window) Validate(shape Shape) error {
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("%w: seed window %dx%d must have positive dimensions", ErrInvalidConfig, w.Width, w.Height)
	}
	if w.OffsetX < 0 || w.OffsetY < 0 || w.OffsetX+w.Width > shape.Width || w.OffsetY+w.Height > shape.Height {
		return fmt.Errorf("%w: seed window %dx%d at (%d,%d) exceeds %dx%d grid",
			ErrInvalidConfig, w.Width, w.Height, w.OffsetX, w.OffsetY, shape.Width, shape.Height)
	}
	return nil
}
