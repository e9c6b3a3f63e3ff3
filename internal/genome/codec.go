package genome

import (
	"fmt"
	"math/rand/v2"
)

// Random draws a width*height genome where every bit is set independently
// with probability livingChance. An all-zero result is possible and left to
// the caller.
func Random(rng *rand.Rand, width, height int, livingChance float64) Genome {
	g := New(width * height)
	for i := 0; i < g.n; i++ {
		if rng.Float64() < livingChance {
			g.words[i/wordBits] |= 1 << uint(i%wordBits)
		}
	}
	return g
}

// Decode expands a genome into per-cell alive flags; cell (x, y) reads bit
// y*width+x.
func Decode(g Genome, width, height int) []bool {
	if g.n != width*height {
		panic(fmt.Sprintf("genome: %d bits do not cover a %dx%d grid", g.n, width, height))
	}
	cells := make([]bool, g.n)
	for i := range cells {
		cells[i] = g.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
	}
	return cells
}

// Encode packs row-major alive flags back into a genome.
func Encode(cells []bool) Genome {
	return FromBits(cells)
}
