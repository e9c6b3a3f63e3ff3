package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"lifeevo/internal/evo"
	"lifeevo/internal/stats"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() {
		stdout = orig
	})
	return &buf
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("expected missing command error, got %v", err)
	}
	if err := run(context.Background(), []string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command: bogus") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunCommandWorkflow(t *testing.T) {
	base := t.TempDir()
	artifacts := filepath.Join(base, "runs")
	common := []string{"--store", "memory", "--artifacts-dir", artifacts, "--log-level", "error"}
	out := captureStdout(t)
	ctx := context.Background()

	runArgs := append([]string{"run",
		"--width", "12", "--height", "12",
		"--seed-width", "4", "--seed-height", "4",
		"--pop", "8", "--gens", "3",
		"--elites", "1", "--variance", "1",
		"--max-steps", "60", "--workers", "2", "--seed", "5",
	}, common...)
	if err := run(ctx, runArgs); err != nil {
		t.Fatalf("run command: %v", err)
	}
	if got := strings.Count(out.String(), "generation="); got != 3 {
		t.Fatalf("expected 3 generation lines, got %d:\n%s", got, out.String())
	}
	match := regexp.MustCompile(`run_id=(\S+)`).FindStringSubmatch(out.String())
	if match == nil {
		t.Fatalf("missing run id in output:\n%s", out.String())
	}
	runID := match[1]

	entries, err := stats.ListRunIndex(artifacts)
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != runID {
		t.Fatalf("unexpected run index: %+v", entries)
	}

	out.Reset()
	if err := run(ctx, append([]string{"runs"}, common...)); err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.Contains(out.String(), "run_id="+runID) || !strings.Contains(out.String(), "grid=12x12") {
		t.Fatalf("unexpected runs output:\n%s", out.String())
	}

	out.Reset()
	if err := run(ctx, append([]string{"history", "--latest"}, common...)); err != nil {
		t.Fatalf("history command: %v", err)
	}
	if got := strings.Count(out.String(), "generation="); got != 3 {
		t.Fatalf("expected 3 history lines, got:\n%s", out.String())
	}

	out.Reset()
	exportDir := filepath.Join(base, "export")
	if err := run(ctx, append([]string{"export", "--run-id", runID, "--out", exportDir}, common...)); err != nil {
		t.Fatalf("export command: %v", err)
	}
	for _, file := range []string{stats.HistoryCSVFile, stats.SummaryCSVFile, stats.FitnessPlotFile} {
		if _, err := os.Stat(filepath.Join(exportDir, file)); err != nil {
			t.Fatalf("expected export %s: %v", file, err)
		}
	}

	out.Reset()
	if err := run(ctx, append([]string{"replay", "--latest", "--every", "1000"}, common...)); err != nil {
		t.Fatalf("replay command: %v", err)
	}
	if !strings.Contains(out.String(), "step 0 ") || !strings.Contains(out.String(), "final state=") {
		t.Fatalf("unexpected replay output:\n%s", out.String())
	}
}

func TestRunCommandRejectsNonPositiveSizes(t *testing.T) {
	artifacts := filepath.Join(t.TempDir(), "runs")
	base := []string{"run",
		"--width", "12", "--height", "12",
		"--seed-width", "4", "--seed-height", "4",
		"--pop", "8", "--gens", "1", "--max-steps", "20", "--workers", "1",
		"--store", "memory", "--artifacts-dir", artifacts, "--log-level", "error",
	}
	captureStdout(t)

	for _, override := range [][]string{
		{"--pop", "0"},
		{"--width", "-5"},
		{"--workers", "0"},
		{"--max-steps", "0"},
	} {
		args := append(append([]string{}, base...), override...)
		if err := run(context.Background(), args); !errors.Is(err, evo.ErrInvalidConfig) {
			t.Fatalf("%v: expected invalid config error, got %v", override, err)
		}
	}
	if _, err := os.Stat(filepath.Join(artifacts, "run_index.json")); !os.IsNotExist(err) {
		t.Fatalf("expected no run index after rejected runs, got %v", err)
	}
}

func TestReplayCommandWithExplicitGenome(t *testing.T) {
	out := captureStdout(t)
	// Horizontal blinker on a 5x5 board: bits 11, 12 and 13 -> 0x3800.
	args := []string{"replay", "--genome", "25:0038000000000000", "--width", "5", "--height", "5",
		"--margin", "0", "--store", "memory", "--artifacts-dir", t.TempDir()}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("replay command: %v", err)
	}
	want := "step 0 living=3\n...\n###\n...\n\nstep 1 living=3\n.#.\n.#.\n.#.\n\nstep 2 living=3\n...\n###\n...\n\nfinal state=stabilized steps=2\n"
	if out.String() != want {
		t.Fatalf("unexpected replay output:\n%s", out.String())
	}
}

func TestHistoryAndReplayRequireTarget(t *testing.T) {
	for _, cmd := range []string{"history", "export", "replay"} {
		if err := run(context.Background(), []string{cmd, "--store", "memory"}); err == nil {
			t.Fatalf("%s: expected usage error", cmd)
		}
	}
}

func TestNewLoggerRejectsUnknownSettings(t *testing.T) {
	var buf bytes.Buffer
	if _, err := newLogger(&buf, "verbose", "text"); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, err := newLogger(&buf, "info", "xml"); err == nil {
		t.Fatal("expected invalid format error")
	}
	logger, err := newLogger(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("hello", "k", 1)
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("unexpected json log: %s", buf.String())
	}
}
