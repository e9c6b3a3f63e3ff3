package stats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lifeevo/internal/model"
)

func TestWriteAndReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := RunArtifacts{
		Run: model.RunRecord{
			ID:          "run-123",
			CreatedAt:   time.Unix(1700000000, 0).UTC(),
			Config:      model.RunConfig{GridWidth: 20, GridHeight: 20, SeedWidth: 5, SeedHeight: 5},
			BestGenome:  "25:1f",
			BestFitness: 64,
			Generations: 2,
		},
		Generations: []model.GenerationRecord{
			{RunID: "run-123", Generation: 1, BestFitness: 8},
			{RunID: "run-123", Generation: 2, BestFitness: 64},
		},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range []string{runFile, generationsFile, bestGenomeFile} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}
	best, err := os.ReadFile(filepath.Join(runDir, bestGenomeFile))
	if err != nil {
		t.Fatalf("read best genome: %v", err)
	}
	if strings.TrimSpace(string(best)) != "25:1f" {
		t.Fatalf("unexpected best genome file: %q", best)
	}

	loaded, ok, err := ReadRunArtifacts(baseDir, "run-123")
	if err != nil {
		t.Fatalf("read artifacts: %v", err)
	}
	if !ok {
		t.Fatal("expected artifacts for run-123")
	}
	if loaded.Run.BestFitness != 64 || len(loaded.Generations) != 2 || loaded.Generations[1].Generation != 2 {
		t.Fatalf("unexpected artifacts: %+v", loaded)
	}

	if _, ok, err := ReadRunArtifacts(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing run: ok=%t err=%v", ok, err)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); !errors.Is(err, ErrInvalidRunID) {
		t.Fatalf("expected run id error, got %v", err)
	}
}

func TestRunArtifactsRejectPathEscapes(t *testing.T) {
	root := t.TempDir()
	baseDir := filepath.Join(root, "runs")
	outside := model.RunRecord{ID: "outside", BestGenome: "4:0100000000000000"}
	if _, err := WriteRunArtifacts(root, RunArtifacts{Run: outside}); err != nil {
		t.Fatalf("write sibling run: %v", err)
	}

	for _, id := range []string{"../outside", "..", ".", "a/b", `a\b`, filepath.Join(root, "outside"), " "} {
		if _, ok, err := ReadRunArtifacts(baseDir, id); !errors.Is(err, ErrInvalidRunID) || ok {
			t.Fatalf("read %q: expected invalid run id, got ok=%t err=%v", id, ok, err)
		}
		if _, err := WriteRunArtifacts(baseDir, RunArtifacts{Run: model.RunRecord{ID: id}}); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("write %q: expected invalid run id, got %v", id, err)
		}
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list empty index: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %d", len(entries))
	}

	older := IndexEntryFor(model.RunRecord{ID: "a", CreatedAt: time.Unix(100, 0), BestFitness: 1})
	newer := IndexEntryFor(model.RunRecord{ID: "b", CreatedAt: time.Unix(200, 0), BestFitness: 2})
	for _, entry := range []RunIndexEntry{older, newer} {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.RunID, err)
		}
	}
	older.BestFitness = 5
	if err := AppendRunIndex(baseDir, older); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "b" || entries[1].RunID != "a" || entries[1].BestFitness != 5 {
		t.Fatalf("unexpected index order or content: %+v", entries)
	}
}

func TestRunIndexEqualTimestampPrefersLaterAppend(t *testing.T) {
	baseDir := t.TempDir()
	created := time.Unix(300, 0)
	for _, id := range []string{"first", "second"} {
		if err := AppendRunIndex(baseDir, IndexEntryFor(model.RunRecord{ID: id, CreatedAt: created})); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if entries[0].RunID != "second" {
		t.Fatalf("expected later append first, got %+v", entries)
	}
}
