package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"lifeevo/internal/evo"
)

// Collector owns a private registry so several runs in one process, and
// tests, never collide on global registration.
type Collector struct {
	registry *prometheus.Registry

	runs              prometheus.Counter
	generations       *prometheus.CounterVec
	evaluations       *prometheus.CounterVec
	bestFitness       *prometheus.GaugeVec
	meanFitness       *prometheus.GaugeVec
	uniqueGenomes     *prometheus.GaugeVec
	outcomes          *prometheus.CounterVec
	generationSeconds prometheus.Histogram

	mu     sync.RWMutex
	latest map[string]Progress
}

// Progress is the latest known state of one run.
type Progress struct {
	RunID       string  `json:"run_id"`
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	BestGenome  string  `json:"best_genome"`
	Finished    bool    `json:"finished"`
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lifeevo_runs_finished_total",
			Help: "Evolution runs that reported a final result.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeevo_generations_total",
			Help: "Completed generations.",
		}, []string{"run_id"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeevo_evaluations_total",
			Help: "Genomes simulated to completion.",
		}, []string{"run_id"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lifeevo_best_fitness",
			Help: "Best fitness of the latest generation.",
		}, []string{"run_id"}),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lifeevo_mean_fitness",
			Help: "Mean fitness of the latest generation.",
		}, []string{"run_id"}),
		uniqueGenomes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lifeevo_unique_genomes",
			Help: "Distinct genomes in the latest generation.",
		}, []string{"run_id"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeevo_simulation_outcomes_total",
			Help: "Terminal simulation states by kind.",
		}, []string{"run_id", "state"}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifeevo_generation_duration_seconds",
			Help:    "Wall time spent evaluating one generation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		latest: make(map[string]Progress),
	}
	c.registry.MustRegister(
		c.runs,
		c.generations,
		c.evaluations,
		c.bestFitness,
		c.meanFitness,
		c.uniqueGenomes,
		c.outcomes,
		c.generationSeconds,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observer returns an evo.Observer that records the notifications of runID.
func (c *Collector) Observer(runID string, populationSize int) evo.Observer {
	return evo.ObserverFuncs{
		Generation: func(record evo.GenerationRecord) {
			labels := prometheus.Labels{"run_id": runID}
			diag := record.Diagnostics
			c.generations.With(labels).Inc()
			c.evaluations.With(labels).Add(float64(populationSize))
			c.bestFitness.With(labels).Set(record.Best.Fitness)
			c.meanFitness.With(labels).Set(diag.MeanFitness)
			c.uniqueGenomes.With(labels).Set(float64(diag.UniqueGenomes))
			c.outcomes.With(prometheus.Labels{"run_id": runID, "state": "stabilized"}).Add(float64(diag.Stabilized))
			c.outcomes.With(prometheus.Labels{"run_id": runID, "state": "timed_out"}).Add(float64(diag.TimedOut))
			c.generationSeconds.Observe(diag.Duration.Seconds())
			c.setProgress(Progress{
				RunID:       runID,
				Generation:  record.Generation,
				BestFitness: record.Best.Fitness,
				MeanFitness: diag.MeanFitness,
				BestGenome:  record.Best.Genome.Text(),
			})
		},
		Result: func(result evo.RunResult) {
			c.runs.Inc()
			c.evaluations.With(prometheus.Labels{"run_id": runID}).Add(float64(populationSize))
			c.mu.Lock()
			progress := c.latest[runID]
			progress.RunID = runID
			progress.BestFitness = result.Best.Fitness
			progress.BestGenome = result.Best.Genome.Text()
			progress.Finished = true
			c.latest[runID] = progress
			c.mu.Unlock()
		},
	}
}

func (c *Collector) setProgress(p Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[p.RunID] = p
}

// Progress returns the latest state of runID.
func (c *Collector) Progress(runID string) (Progress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.latest[runID]
	return p, ok
}

// AllProgress returns the latest state of every observed run.
func (c *Collector) AllProgress() []Progress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Progress, 0, len(c.latest))
	for _, p := range c.latest {
		out = append(out, p)
	}
	return out
}
