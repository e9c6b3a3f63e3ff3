package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"lifeevo/internal/automaton"
	"lifeevo/internal/evo"
	"lifeevo/internal/metrics"
	"lifeevo/internal/render"
	"lifeevo/internal/storage"
	"lifeevo/internal/tui"
	lifeapi "lifeevo/pkg/lifeevo"
)

const (
	defaultDBPath       = "lifeevo.db"
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
)

var stdout io.Writer = os.Stdout

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind         *string
	dbPath       *string
	artifactsDir *string
	logLevel     *string
	logFormat    *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:         fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", defaultArtifactsDir, "directory for run artifacts and the run index"),
		logLevel:     fs.String("log-level", "info", "log level: debug|info|warn|error"),
		logFormat:    fs.String("log-format", "text", "log format: text|json"),
	}
}

func (f storeFlags) client(collector *metrics.Collector) (*lifeapi.Client, *slog.Logger, error) {
	logger, err := newLogger(os.Stderr, *f.logLevel, *f.logFormat)
	if err != nil {
		return nil, nil, err
	}
	client, err := lifeapi.New(lifeapi.Options{
		StoreKind:    *f.kind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifactsDir,
		ExportsDir:   defaultExportsDir,
		Logger:       logger,
		Metrics:      collector,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}

func runRun(ctx context.Context, args []string) error {
	def := lifeapi.DefaultRunRequest()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path; explicitly set flags override it")
	fs.Int("width", def.GridWidth, "grid width")
	fs.Int("height", def.GridHeight, "grid height")
	fs.Bool("toroidal", def.Toroidal, "wrap the grid edges")
	fs.Int("seed-width", def.SeedWidth, "seed window width (0 uses the whole grid)")
	fs.Int("seed-height", def.SeedHeight, "seed window height (0 uses the whole grid)")
	fs.Int("pop", def.Population, "population size")
	fs.Int("gens", def.Generations, "generation count")
	fs.Int("elites", def.BestPromotionCount, "best genomes copied unchanged into the next generation")
	fs.Int("variance", def.NewVarianceCount, "fresh random genomes per generation")
	fs.Float64("mutation", def.MutationChance, "probability of flipping one bit in a child")
	fs.Float64("living", def.LivingChance, "probability of a live cell in random genomes")
	fs.Int("max-steps", def.MaxSteps, "simulation step limit")
	fs.Bool("strict", !def.Lenient, "score timed-out simulations as zero")
	fs.String("fitness", def.Fitness, "fitness function: "+strings.Join(automaton.FitnessNames(), "|"))
	fs.String("selection", def.Selection, "parent selection: "+strings.Join(evo.ListSelectors(), "|"))
	fs.String("fitness-postprocessor", def.Postprocessor, "fitness postprocessor: "+strings.Join(evo.ListPostprocessors(), "|"))
	fs.Int("parents", def.Parents, "parents per child (more than 2 uses chunked crossover)")
	fs.Int("workers", def.Workers, "parallel evaluation batches")
	fs.Uint64("seed", def.Seed, "rng seed (0 seeds randomly)")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics and /progress on this address during the run")
	useTUI := fs.Bool("tui", false, "show a terminal dashboard instead of per-generation lines")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	overrideFromFlags(&req, fs)

	var collector *metrics.Collector
	if *metricsAddr != "" {
		collector = metrics.NewCollector()
	}
	client, logger, err := sf.client(collector)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var dashboard *tui.Dashboard
	if *useTUI {
		seedWidth, seedHeight := req.SeedWidth, req.SeedHeight
		if seedWidth <= 0 || seedHeight <= 0 {
			seedWidth, seedHeight = req.GridWidth, req.GridHeight
		}
		dashboard = tui.NewDashboard(tui.Config{
			Title:       "lifeevo",
			Generations: req.Generations,
			SeedWidth:   seedWidth,
			SeedHeight:  seedHeight,
		})
		if err := dashboard.Start(ctx); err != nil {
			logger.Warn("dashboard unavailable", "error", err)
			dashboard = nil
		}
	}
	if dashboard != nil {
		req.Observer = dashboard.Observer()
	} else {
		req.Observer = evo.ObserverFuncs{Generation: func(record evo.GenerationRecord) {
			fmt.Fprintf(stdout, "generation=%d best=%.4f steps=%d state=%s mean=%.4f unique=%d\n",
				record.Generation,
				record.Best.Fitness,
				record.Best.Steps,
				record.Best.State,
				record.Diagnostics.MeanFitness,
				record.Diagnostics.UniqueGenomes,
			)
		}}
	}

	// The dashboard keeps the caller's context so it can render the final
	// result; runCtx only bounds the evolution and the metrics server.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	if collector != nil {
		g.Go(func() error {
			return collector.Serve(gctx, *metricsAddr, logger)
		})
	}
	var summary lifeapi.RunSummary
	g.Go(func() error {
		defer cancelRun()
		s, err := client.Run(gctx, req)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	err = g.Wait()
	if dashboard != nil {
		dashboard.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run_id=%s best_fitness=%.4f best_steps=%d best_state=%s duration=%s\n",
		summary.RunID, summary.BestFitness, summary.BestSteps, summary.BestState, summary.Duration)
	fmt.Fprintf(stdout, "best_genome=%s\n", summary.BestGenome)
	fmt.Fprintf(stdout, "artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs to list (0 lists all)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, _, err := sf.client(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "no runs")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s grid=%dx%d pop=%d gens=%d seed=%d fitness=%s best=%.4f\n",
			item.RunID, item.CreatedAtUTC, item.GridWidth, item.GridHeight, item.Population,
			item.Generations, item.Seed, item.Fitness, item.BestFitness)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "show only the last N generations (0 shows all)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return usageError("history requires --run-id or --latest")
	}
	client, _, err := sf.client(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	records, err := client.History(ctx, lifeapi.HistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(stdout, "generation=%d best=%.4f mean=%.4f median=%.4f min=%.4f stddev=%.4f best_steps=%d stabilized=%d timed_out=%d unique=%d\n",
			r.Generation, r.BestFitness, r.MeanFitness, r.MedianFitness, r.MinFitness, r.StdDevFitness,
			r.BestSteps, r.Stabilized, r.TimedOut, r.UniqueGenomes)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "output directory (default exports/<run-id>)")
	title := fs.String("title", "", "plot title")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return usageError("export requires --run-id or --latest")
	}
	client, _, err := sf.client(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, lifeapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir, Title: *title})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run=%s history=%s summary=%s plot=%s\n",
		exported.RunID, exported.Paths.History, exported.Paths.Summary, exported.Paths.Plot)
	return nil
}

func runReplay(ctx context.Context, args []string) error {
	def := lifeapi.DefaultRunRequest()
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	runID := fs.String("run-id", "", "replay the best genome of this run")
	latest := fs.Bool("latest", false, "replay the best genome of the most recent run")
	genomeText := fs.String("genome", "", "explicit genome <bits>:<hex> to replay instead of a stored run")
	width := fs.Int("width", def.GridWidth, "grid width for --genome")
	height := fs.Int("height", def.GridHeight, "grid height for --genome")
	toroidal := fs.Bool("toroidal", false, "wrap the grid edges for --genome")
	seedWidth := fs.Int("seed-width", 0, "seed window width for --genome (0 uses the whole grid)")
	seedHeight := fs.Int("seed-height", 0, "seed window height for --genome (0 uses the whole grid)")
	maxSteps := fs.Int("max-steps", 0, "simulation step limit (0 uses the run's limit)")
	every := fs.Int("every", 1, "print every Nth frame")
	crop := fs.Bool("crop", true, "crop frames to the live region")
	margin := fs.Int("margin", 1, "cells kept around the live region when cropping")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest && *genomeText == "" {
		return usageError("replay requires --run-id, --latest or --genome")
	}
	client, _, err := sf.client(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	replay, err := client.Replay(ctx, lifeapi.ReplayRequest{
		RunID:  *runID,
		Latest: *latest,
		Genome: *genomeText,
		Run: lifeapi.RunRequest{
			GridWidth:  *width,
			GridHeight: *height,
			Toroidal:   *toroidal,
			SeedWidth:  *seedWidth,
			SeedHeight: *seedHeight,
		},
		MaxSteps: *maxSteps,
		Render:   render.Options{Alive: '#', Dead: '.', Crop: *crop, Margin: *margin},
	})
	if err != nil {
		return err
	}
	return render.WriteReplay(stdout, replay, *every)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, usageError(fmt.Sprintf("invalid log level: %s", level))
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, usageError(fmt.Sprintf("invalid log format: %s", format))
	}
}

func usageError(msg string) error {
	return errors.New(msg + "\nusage: lifeevoctl <run|runs|history|export|replay> [flags]")
}
