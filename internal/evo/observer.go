package evo

import (
	"log/slog"

	"lifeevo/internal/genome"
)

// GenerationRecord is the progress notification emitted once per completed
// generation.
type GenerationRecord struct {
	Generation  int
	Best        ScoredGenome
	Diagnostics GenerationDiagnostics
}

type RunResult struct {
	Best        ScoredGenome
	Generations []GenerationRecord
}

func (r RunResult) BestGenome() genome.Genome { return r.Best.Genome }

// Observer receives push notifications from a Monitor. Implementations must
// not block for long; the generation loop waits for each call.
type Observer interface {
	OnGeneration(GenerationRecord)
	OnResult(RunResult)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Generation func(GenerationRecord)
	Result     func(RunResult)
}

func (o ObserverFuncs) OnGeneration(record GenerationRecord) {
	if o.Generation != nil {
		o.Generation(record)
	}
}

func (o ObserverFuncs) OnResult(result RunResult) {
	if o.Result != nil {
		o.Result(result)
	}
}

// MultiObserver fans notifications out in order.
type MultiObserver []Observer

func (m MultiObserver) OnGeneration(record GenerationRecord) {
	for _, o := range m {
		if o != nil {
			o.OnGeneration(record)
		}
	}
}

func (m MultiObserver) OnResult(result RunResult) {
	for _, o := range m {
		if o != nil {
			o.OnResult(result)
		}
	}
}

// ChannelObserver pushes notifications onto buffered channels and drops
// them when a buffer is full.
type ChannelObserver struct {
	Generations chan GenerationRecord
	Results     chan RunResult
}

func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{
		Generations: make(chan GenerationRecord, buffer),
		Results:     make(chan RunResult, 1),
	}
}

func (c *ChannelObserver) OnGeneration(record GenerationRecord) {
	select {
	case c.Generations <- record:
	default:
	}
}

func (c *ChannelObserver) OnResult(result RunResult) {
	select {
	case c.Results <- result:
	default:
	}
}

type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnGeneration(record GenerationRecord) {
	o.logger().Debug("generation complete",
		"generation", record.Generation,
		"best_fitness", record.Best.Fitness,
		"best_steps", record.Best.Steps,
		"mean_fitness", record.Diagnostics.MeanFitness,
		"stabilized", record.Diagnostics.Stabilized,
		"timed_out", record.Diagnostics.TimedOut,
	)
}

func (o LogObserver) OnResult(result RunResult) {
	o.logger().Info("evolution finished",
		"generations", len(result.Generations),
		"best_fitness", result.Best.Fitness,
		"best_genome", result.Best.Genome.Text(),
	)
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
