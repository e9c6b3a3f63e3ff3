package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunConfig is the persisted subset of a run's configuration needed to
// replay its genomes.
type RunConfig struct {
	GridWidth          int     `json:"grid_width"`
	GridHeight         int     `json:"grid_height"`
	Toroidal           bool    `json:"toroidal"`
	SeedWidth          int     `json:"seed_width"`
	SeedHeight         int     `json:"seed_height"`
	SeedOffsetX        int     `json:"seed_offset_x"`
	SeedOffsetY        int     `json:"seed_offset_y"`
	PopulationSize     int     `json:"population_size"`
	Generations        int     `json:"generations"`
	BestPromotionCount int     `json:"best_promotion_count"`
	NewVarianceCount   int     `json:"new_variance_count"`
	MutationChance     float64 `json:"mutation_chance"`
	LivingChance       float64 `json:"living_chance"`
	MaxSteps           int     `json:"max_steps"`
	Strict             bool    `json:"strict"`
	Fitness            string  `json:"fitness"`
	Selection          string  `json:"selection"`
	Postprocessor      string  `json:"postprocessor"`
	Parents            int     `json:"parents"`
	Workers            int     `json:"workers"`
	Seed               uint64  `json:"seed"`
}

type RunRecord struct {
	VersionedRecord
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Duration    time.Duration `json:"duration_ns"`
	Config      RunConfig     `json:"config"`
	BestGenome  string        `json:"best_genome"`
	BestFitness float64       `json:"best_fitness"`
	BestSteps   int           `json:"best_steps"`
	BestState   string        `json:"best_state"`
	Generations int           `json:"generations_completed"`
}

type GenerationRecord struct {
	VersionedRecord
	RunID           string  `json:"run_id"`
	Generation      int     `json:"generation"`
	BestGenome      string  `json:"best_genome"`
	BestFitness     float64 `json:"best_fitness"`
	BestSteps       int     `json:"best_steps"`
	MeanFitness     float64 `json:"mean_fitness"`
	MinFitness      float64 `json:"min_fitness"`
	MedianFitness   float64 `json:"median_fitness"`
	StdDevFitness   float64 `json:"stddev_fitness"`
	MeanSteps       float64 `json:"mean_steps"`
	Stabilized      int     `json:"stabilized"`
	TimedOut        int     `json:"timed_out"`
	UniqueGenomes   int     `json:"unique_genomes"`
	MeanLivingCells float64 `json:"mean_living_cells"`
	DurationMillis  float64 `json:"duration_ms"`
}
