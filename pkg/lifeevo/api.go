package lifeevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifeevo/internal/automaton"
	"lifeevo/internal/evo"
	"lifeevo/internal/genome"
	"lifeevo/internal/metrics"
	"lifeevo/internal/model"
	"lifeevo/internal/render"
	"lifeevo/internal/stats"
	"lifeevo/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "lifeevo.db"
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
	// Metrics, when set, receives every run's progress notifications.
	Metrics *metrics.Collector
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Collector

	initOnce sync.Once
	initErr  error

	artifactsDir string
	exportsDir   string
}

// RunRequest configures one evolutionary run. Run uses it as given and
// rejects unusable values, so callers start from DefaultRunRequest. Empty
// strategy names select the default strategy.
type RunRequest struct {
	GridWidth  int
	GridHeight int
	Toroidal   bool
	// SeedWidth and SeedHeight size the centered seed window. Zero places the
	// genome over the whole board.
	SeedWidth  int
	SeedHeight int

	Population         int
	Generations        int
	BestPromotionCount int
	NewVarianceCount   int
	MutationChance     float64
	LivingChance       float64
	MaxSteps           int
	// Lenient scores timed-out simulations instead of zeroing them.
	Lenient       bool
	Fitness       string
	Selection     string
	Postprocessor string
	Parents       int
	Workers       int
	Seed          uint64

	// Observer receives progress alongside persistence and metrics.
	Observer evo.Observer
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestGenome       string
	BestFitness      float64
	BestSteps        int
	BestState        string
	BestByGeneration []float64
	Duration         time.Duration
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	GridWidth    int
	GridHeight   int
	Population   int
	Generations  int
	Seed         uint64
	Fitness      string
	BestFitness  float64
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
	Title  string
}

type ExportSummary struct {
	RunID string
	Paths stats.ExportPaths
}

// ReplayRequest replays either the best genome of a stored run or an
// explicit Genome ("<bits>:<hex>") on the grid described by Run.
type ReplayRequest struct {
	RunID    string
	Latest   bool
	Genome   string
	Run      RunRequest
	MaxSteps int
	Render   render.Options
}

func DefaultRunRequest() RunRequest {
	return RunRequest{
		GridWidth:          evo.DefaultGridWidth,
		GridHeight:         evo.DefaultGridHeight,
		SeedWidth:          evo.DefaultSeedWidth,
		SeedHeight:         evo.DefaultSeedHeight,
		Population:         evo.DefaultPopulationSize,
		Generations:        evo.DefaultGenerations,
		BestPromotionCount: evo.DefaultBestPromotionCount,
		NewVarianceCount:   evo.DefaultNewVarianceCount,
		MutationChance:     evo.DefaultMutationChance,
		LivingChance:       evo.DefaultLivingChance,
		MaxSteps:           evo.DefaultMaxSteps,
		Fitness:            automaton.DefaultFitness().Name(),
		Selection:          "roulette",
		Postprocessor:      "none",
		Parents:            evo.DefaultParents,
		Workers:            evo.DefaultWorkers,
	}
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		store:        store,
		logger:       logger,
		metrics:      opts.Metrics,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureInit(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg, err := req.evoConfig()
	if err != nil {
		return RunSummary{}, err
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	req.Fitness = cfg.Fitness.Name()
	req.Selection = cfg.Selector.Name()
	req.Postprocessor = cfg.Postprocessor.Name()
	if err := c.ensureInit(ctx); err != nil {
		return RunSummary{}, fmt.Errorf("init store: %w", err)
	}

	runID := uuid.NewString()
	createdAt := time.Now().UTC()
	logger := c.logger.With("run_id", runID)

	persist := &generationRecorder{ctx: ctx, store: c.store, runID: runID}
	observers := evo.MultiObserver{persist, req.Observer}
	if c.metrics != nil {
		observers = append(observers, c.metrics.Observer(runID, req.Population))
	}
	cfg.Observer = observers
	cfg.Logger = logger

	monitor, err := evo.NewMonitor(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	result, err := monitor.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if persist.err != nil {
		return RunSummary{}, fmt.Errorf("persist generation history: %w", persist.err)
	}

	best := result.Best
	bestText := best.Genome.Text()
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		CreatedAt:       createdAt,
		Duration:        time.Since(createdAt),
		Config:          req.runConfig(),
		BestGenome:      bestText,
		BestFitness:     best.Fitness,
		BestSteps:       best.Steps,
		BestState:       best.State.String(),
		Generations:     len(result.Generations),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	dir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{Run: run, Generations: persist.records})
	if err != nil {
		return RunSummary{}, fmt.Errorf("write run artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntryFor(run)); err != nil {
		return RunSummary{}, fmt.Errorf("append run index: %w", err)
	}

	bestByGeneration := make([]float64, 0, len(result.Generations))
	for _, record := range result.Generations {
		bestByGeneration = append(bestByGeneration, record.Best.Fitness)
	}
	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     dir,
		BestGenome:       bestText,
		BestFitness:      best.Fitness,
		BestSteps:        best.Steps,
		BestState:        run.BestState,
		BestByGeneration: bestByGeneration,
		Duration:         run.Duration,
	}, nil
}

// Runs lists runs newest first. When the store holds nothing, as a fresh
// memory store does, the on-disk run index is used instead.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.ensureInit(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	runs, err := c.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > 0 {
		items := make([]RunItem, 0, len(runs))
		for _, run := range runs {
			items = append(items, runItemFromEntry(stats.IndexEntryFor(run)))
		}
		return items, nil
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	items := make([]RunItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, runItemFromEntry(entry))
	}
	return items, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationRecord, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	_, records, err := c.lookupRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[len(records)-req.Limit:]
	}
	return records, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	_, records, err := c.lookupRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Join(c.exportsDir, runID)
	}
	title := req.Title
	if title == "" {
		title = "run " + runID
	}
	paths, err := stats.ExportHistory(outDir, title, records)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Paths: paths}, nil
}

func (c *Client) Replay(ctx context.Context, req ReplayRequest) (render.Replay, error) {
	runReq := req.Run
	text := req.Genome
	if text == "" {
		runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
		if err != nil {
			return render.Replay{}, err
		}
		run, _, err := c.lookupRun(ctx, runID)
		if err != nil {
			return render.Replay{}, err
		}
		runReq = runRequestFromConfig(run.Config)
		text = run.BestGenome
	}
	g, err := genome.Parse(text)
	if err != nil {
		return render.Replay{}, fmt.Errorf("parse genome: %w", err)
	}
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = runReq.MaxSteps
	}
	if maxSteps <= 0 {
		maxSteps = evo.DefaultMaxSteps
	}
	shape, window := runReq.geometry()
	return render.Simulate(shape, window, g, maxSteps, req.Render)
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id is required (or request the latest run)")
	}
	items, err := c.Runs(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
	}
	return items[0].RunID, nil
}

// lookupRun reads a run from the store and falls back to its artifacts.
func (c *Client) lookupRun(ctx context.Context, runID string) (model.RunRecord, []model.GenerationRecord, error) {
	if err := c.ensureInit(ctx); err != nil {
		return model.RunRecord{}, nil, fmt.Errorf("init store: %w", err)
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, nil, fmt.Errorf("get run: %w", err)
	}
	if ok {
		records, _, err := c.store.GetGenerations(ctx, runID)
		if err != nil {
			return model.RunRecord{}, nil, fmt.Errorf("get generations: %w", err)
		}
		return run, records, nil
	}

	artifacts, ok, err := stats.ReadRunArtifacts(c.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	if !ok {
		return model.RunRecord{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return artifacts.Run, artifacts.Generations, nil
}

// generationRecorder persists generation records as they arrive and keeps
// the first store failure for the caller.
type generationRecorder struct {
	ctx     context.Context
	store   storage.Store
	runID   string
	records []model.GenerationRecord
	err     error
}

func (r *generationRecorder) OnGeneration(record evo.GenerationRecord) {
	rec := generationRecord(r.runID, record)
	r.records = append(r.records, rec)
	if r.err != nil {
		return
	}
	if err := r.store.AppendGeneration(r.ctx, rec); err != nil {
		r.err = fmt.Errorf("generation %d: %w", record.Generation, err)
	}
}

func (r *generationRecorder) OnResult(evo.RunResult) {}

func generationRecord(runID string, record evo.GenerationRecord) model.GenerationRecord {
	diag := record.Diagnostics
	return model.GenerationRecord{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Generation:      record.Generation,
		BestGenome:      record.Best.Genome.Text(),
		BestFitness:     record.Best.Fitness,
		BestSteps:       record.Best.Steps,
		MeanFitness:     diag.MeanFitness,
		MinFitness:      diag.MinFitness,
		MedianFitness:   diag.MedianFitness,
		StdDevFitness:   diag.StdDevFitness,
		MeanSteps:       diag.MeanSteps,
		Stabilized:      diag.Stabilized,
		TimedOut:        diag.TimedOut,
		UniqueGenomes:   diag.UniqueGenomes,
		MeanLivingCells: diag.MeanLivingCells,
		DurationMillis:  float64(diag.Duration) / float64(time.Millisecond),
	}
}

func runItemFromEntry(entry stats.RunIndexEntry) RunItem {
	return RunItem{
		RunID:        entry.RunID,
		CreatedAtUTC: entry.CreatedAtUTC,
		GridWidth:    entry.GridWidth,
		GridHeight:   entry.GridHeight,
		Population:   entry.PopulationSize,
		Generations:  entry.Generations,
		Seed:         entry.Seed,
		Fitness:      entry.Fitness,
		BestFitness:  entry.BestFitness,
	}
}
