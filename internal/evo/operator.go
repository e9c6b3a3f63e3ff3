package evo

import (
	"fmt"
	"math/rand/v2"

	"lifeevo/internal/genome"
)

// Crossover recombines parent genomes into one child.
type Crossover interface {
	Name() string
	Parents() int
	Cross(rng *rand.Rand, parents []genome.Genome) (genome.Genome, error)
}

// SinglePointCrossover draws a cutoff in [1, n-1]; the child takes the
// cutoff highest bits from the first parent and the rest from the second.
type SinglePointCrossover struct{}

func (SinglePointCrossover) Name() string { return "single_point" }

func (SinglePointCrossover) Parents() int { return 2 }

func (SinglePointCrossover) Cross(rng *rand.Rand, parents []genome.Genome) (genome.Genome, error) {
	if len(parents) != 2 {
		return genome.Genome{}, fmt.Errorf("single point crossover needs 2 parents, got %d", len(parents))
	}
	n := parents[0].Len()
	if parents[1].Len() != n {
		return genome.Genome{}, fmt.Errorf("parent length mismatch: %d != %d", n, parents[1].Len())
	}
	if n < 2 {
		return parents[0], nil
	}
	cutoff := 1 + rng.IntN(n-1)
	return CrossAt(parents[0], parents[1], cutoff), nil
}

// CrossAt combines the cutoff high-order bits of high with the remaining
// low-order bits of low. high is masked as well: OR-ing it in whole would
// leak its low bits into the child and bias offspring toward more live
// cells.
func CrossAt(high, low genome.Genome, cutoff int) genome.Genome {
	mask := genome.LowMask(low.Len(), low.Len()-cutoff)
	return high.AndNot(mask).Or(low.And(mask))
}

// ChunkedCrossover splits the genome into one equal contiguous chunk per
// parent and takes chunk i from parent i; the last chunk absorbs the
// remainder.
type ChunkedCrossover struct {
	N int
}

func (ChunkedCrossover) Name() string { return "chunked" }

func (c ChunkedCrossover) Parents() int { return c.N }

func (c ChunkedCrossover) Cross(_ *rand.Rand, parents []genome.Genome) (genome.Genome, error) {
	if len(parents) == 0 || (c.N > 0 && len(parents) != c.N) {
		return genome.Genome{}, fmt.Errorf("chunked crossover needs %d parents, got %d", c.N, len(parents))
	}
	n := parents[0].Len()
	size := n / len(parents)
	child := genome.New(n)
	for i, parent := range parents {
		if parent.Len() != n {
			return genome.Genome{}, fmt.Errorf("parent length mismatch: %d != %d", n, parent.Len())
		}
		start, end := i*size, (i+1)*size
		if i == len(parents)-1 {
			end = n
		}
		child = child.Or(parent.Chunk(start, end))
	}
	return child, nil
}

// CrossoverFor returns the canonical operator for the given parent count.
func CrossoverFor(parents int) Crossover {
	if parents <= 2 {
		return SinglePointCrossover{}
	}
	return ChunkedCrossover{N: parents}
}

// Mutate flips exactly one uniformly chosen bit with probability chance and
// otherwise returns g unchanged.
func Mutate(rng *rand.Rand, g genome.Genome, chance float64) genome.Genome {
	if g.Len() == 0 || rng.Float64() >= chance {
		return g
	}
	return g.FlipBit(rng.IntN(g.Len()))
}
