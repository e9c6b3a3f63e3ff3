package evo

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"lifeevo/internal/automaton"
	"lifeevo/internal/genome"
)

// Batch is a contiguous slice [Start, End) of the population.
type Batch struct {
	Start int
	End   int
}

func (b Batch) Len() int { return b.End - b.Start }

// Partition splits n items into exactly workers contiguous batches of
// ceil(n/workers) items. Trailing batches may be short or empty.
func Partition(n, workers int) []Batch {
	if workers <= 0 {
		return nil
	}
	size := (n + workers - 1) / workers
	batches := make([]Batch, workers)
	for i := range batches {
		start := min(i*size, n)
		end := min(start+size, n)
		batches[i] = Batch{Start: start, End: end}
	}
	return batches
}

// BatchScheduler evaluates a population in parallel, one unit per batch.
// Every unit builds fresh simulations and writes only its own result slots,
// so results come back in population order regardless of completion order.
type BatchScheduler struct {
	Workers   int
	Evaluator automaton.Evaluator
}

// Evaluate blocks until every batch has finished. Once dispatched a batch
// runs to completion; ctx only stops batches that have not started yet.
func (s BatchScheduler) Evaluate(ctx context.Context, population []genome.Genome) ([]ScoredGenome, error) {
	if s.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be > 0", ErrInvalidConfig)
	}
	scored := make([]ScoredGenome, len(population))
	p := pool.New().WithMaxGoroutines(s.Workers).WithErrors()
	for i, batch := range Partition(len(population), s.Workers) {
		if batch.Len() == 0 {
			continue
		}
		p.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.evaluateBatch(population[batch.Start:batch.End], scored[batch.Start:batch.End], i)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

func (s BatchScheduler) evaluateBatch(in []genome.Genome, out []ScoredGenome, batch int) error {
	for i, g := range in {
		result, err := s.Evaluator.Evaluate(g)
		if err != nil {
			return fmt.Errorf("batch %d item %d: %w", batch, i, err)
		}
		out[i] = ScoredGenome{
			Genome:  g,
			Fitness: result.Fitness,
			Steps:   result.Steps,
			State:   result.State,
		}
	}
	return nil
}
