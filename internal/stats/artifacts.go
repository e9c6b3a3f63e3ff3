package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lifeevo/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	runFile            = "run.json"
	generationsFile    = "generations.json"
	bestGenomeFile     = "best_genome.txt"
	HistoryCSVFile     = "history.csv"
	SummaryCSVFile     = "summary.csv"
	FitnessPlotFile    = "fitness.png"
	defaultDirFileMode = 0o755
)

var ErrInvalidRunID = errors.New("invalid run id")

// validateRunID keeps run directories directly under the artifacts base.
func validateRunID(runID string) error {
	switch {
	case strings.TrimSpace(runID) == "":
		return fmt.Errorf("%w: run id is required", ErrInvalidRunID)
	case runID == "." || runID == "..", strings.ContainsAny(runID, `/\`), filepath.Base(runID) != runID:
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

type RunArtifacts struct {
	Run         model.RunRecord          `json:"run"`
	Generations []model.GenerationRecord `json:"generations"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	GridWidth      int     `json:"grid_width"`
	GridHeight     int     `json:"grid_height"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           uint64  `json:"seed"`
	Workers        int     `json:"workers"`
	Fitness        string  `json:"fitness"`
	BestFitness    float64 `json:"best_fitness"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// IndexEntryFor summarizes a run record for run_index.json.
func IndexEntryFor(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:          run.ID,
		GridWidth:      run.Config.GridWidth,
		GridHeight:     run.Config.GridHeight,
		PopulationSize: run.Config.PopulationSize,
		Generations:    run.Generations,
		Seed:           run.Config.Seed,
		Workers:        run.Config.Workers,
		Fitness:        run.Config.Fitness,
		BestFitness:    run.BestFitness,
		CreatedAtUTC:   run.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z"),
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if err := validateRunID(artifacts.Run.ID); err != nil {
		return "", err
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, defaultDirFileMode); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	generations := artifacts.Generations
	if generations == nil {
		generations = []model.GenerationRecord{}
	}
	if err := writeJSON(filepath.Join(runDir, generationsFile), generations); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, bestGenomeFile), []byte(artifacts.Run.BestGenome+"\n"), 0o644); err != nil {
		return "", err
	}
	return runDir, nil
}

func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	if err := validateRunID(runID); err != nil {
		return RunArtifacts{}, false, err
	}
	var artifacts RunArtifacts
	ok, err := readJSON(filepath.Join(baseDir, runID, runFile), &artifacts.Run)
	if err != nil || !ok {
		return RunArtifacts{}, ok, err
	}
	if _, err := readJSON(filepath.Join(baseDir, runID, generationsFile), &artifacts.Generations); err != nil {
		return RunArtifacts{}, false, err
	}
	return artifacts, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, defaultDirFileMode); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []RunIndexEntry{}
	}
	return entries, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
