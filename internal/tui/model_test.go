package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lifeevo/internal/automaton"
	"lifeevo/internal/evo"
	"lifeevo/internal/genome"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out
}

func TestModelViewBeforeWindowSize(t *testing.T) {
	if got := NewModel("lifeevo").View(); got != "Initializing..." {
		t.Fatalf("unexpected initial view: %q", got)
	}
}

func TestModelTracksSnapshotsAndBestEvents(t *testing.T) {
	m := NewModel("lifeevo")
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = update(t, m, MsgSnapshot{RunID: "run-1", Generation: 1, Generations: 4, BestFitness: 2, BestState: "stabilized"})
	m = update(t, m, MsgSnapshot{RunID: "run-1", Generation: 2, Generations: 4, BestFitness: 2, BestState: "stabilized"})
	m = update(t, m, MsgSnapshot{RunID: "run-1", Generation: 3, Generations: 4, BestFitness: 5, BestState: "timed_out"})

	if len(m.events) != 2 {
		t.Fatalf("expected two new-best events, got %d", len(m.events))
	}
	if m.prevBest != 2 || m.snapshot.BestFitness != 5 {
		t.Fatalf("unexpected best tracking: prev=%f cur=%f", m.prevBest, m.snapshot.BestFitness)
	}
	if got := m.fraction(); got != 0.75 {
		t.Fatalf("unexpected progress fraction: %f", got)
	}
	view := m.View()
	for _, want := range []string{"run=run-1", "generation 3/4", "5.000", "timed_out"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelFinishedSnapshotAddsDoneEvent(t *testing.T) {
	m := update(t, NewModel("lifeevo"), MsgSnapshot{Generation: 2, Generations: 2, BestFitness: 1, Finished: true})
	if len(m.events) != 2 || m.events[1].Kind != "DONE" {
		t.Fatalf("unexpected events: %+v", m.events)
	}
}

func TestModelQuitsOnShutdownAndKey(t *testing.T) {
	m := NewModel("lifeevo")
	if _, cmd := m.Update(MsgShutdown{}); cmd == nil {
		t.Fatal("expected quit command on shutdown")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Fatal("expected quit command on q")
	}
}

func TestModelEventRingIsBounded(t *testing.T) {
	m := NewModel("lifeevo")
	for i := 0; i < maxEvents+25; i++ {
		m = update(t, m, MsgEvent{Timestamp: time.Now(), Kind: "ERROR", Message: "x"})
	}
	if len(m.events) != maxEvents {
		t.Fatalf("unexpected event count: %d", len(m.events))
	}
}

func TestSnapshotFromRecordRendersPreview(t *testing.T) {
	cfg := Config{RunID: "run-2", Generations: 10, SeedWidth: 2, SeedHeight: 2}
	record := evo.GenerationRecord{
		Generation: 3,
		Best:       evo.ScoredGenome{Genome: genome.FromIndices(4, 0, 3), Fitness: 7, Steps: 12, State: automaton.Stabilized},
		Diagnostics: evo.GenerationDiagnostics{
			MeanFitness:   3.5,
			UniqueGenomes: 4,
			Stabilized:    5,
		},
	}
	s := SnapshotFromRecord(cfg, record)
	if s.RunID != "run-2" || s.Generation != 3 || s.BestFitness != 7 || s.BestState != "stabilized" || s.Unique != 4 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.Preview != "█·\n·█\n" {
		t.Fatalf("unexpected preview: %q", s.Preview)
	}

	cfg.SeedWidth = 3
	if got := SnapshotFromRecord(cfg, record).Preview; got != "" {
		t.Fatalf("expected no preview for mismatched window, got %q", got)
	}
}

func TestDashboardObserverWithoutProgramIsNoop(t *testing.T) {
	d := NewDashboard(Config{RunID: "run-3"})
	observer := d.Observer()
	observer.OnGeneration(evo.GenerationRecord{Generation: 1})
	observer.OnResult(evo.RunResult{})
	d.Stop()
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		250 * time.Millisecond:          "250ms",
		42 * time.Second:                "42s",
		3*time.Minute + 5*time.Second:   "3m05s",
		2*time.Hour + 1*time.Minute + 9: "2h01m00s",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%s) = %q, want %q", d, got, want)
		}
	}
}

func TestDashboardStopKeepsFinalResult(t *testing.T) {
	d := NewDashboard(Config{Title: "lifeevo", Generations: 1, SeedWidth: 2, SeedHeight: 2})
	d.start(context.Background(), tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutSignalHandler())

	d.Observer().OnResult(evo.RunResult{
		Best: evo.ScoredGenome{Genome: genome.FromIndices(4, 0), Fitness: 0.5, Steps: 3, State: automaton.Stabilized},
	})
	d.Stop()

	d.mu.RLock()
	final := d.final
	d.mu.RUnlock()
	m, ok := final.(Model)
	if !ok {
		t.Fatalf("unexpected final model %T", final)
	}
	if !m.snapshot.Finished || m.snapshot.BestFitness != 0.5 {
		t.Fatalf("final snapshot not delivered: %+v", m.snapshot)
	}
	if n := len(m.events); n == 0 || m.events[n-1].Kind != "DONE" {
		t.Fatalf("expected trailing DONE event, got %+v", m.events)
	}
}
