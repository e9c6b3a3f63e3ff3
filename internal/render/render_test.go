package render

import (
	"bytes"
	"strings"
	"testing"

	"lifeevo/internal/automaton"
	"lifeevo/internal/genome"
)

func TestSeed(t *testing.T) {
	g := genome.FromIndices(6, 0, 4)
	got := Seed(g, 3, 2, Options{})
	want := "#..\n.#.\n"
	if got != want {
		t.Fatalf("unexpected seed rendering:\n%q\nwant\n%q", got, want)
	}
}

func TestSimulateBlinkerCropsToUnionBox(t *testing.T) {
	shape := automaton.Shape{Width: 9, Height: 9}
	// Horizontal blinker through the center.
	g := genome.FromIndices(81, 4*9+3, 4*9+4, 4*9+5)
	replay, err := Simulate(shape, automaton.FullWindow(shape), g, 10, Options{Crop: true})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if replay.State != automaton.Stabilized || replay.Steps != 2 || len(replay.Frames) != 3 {
		t.Fatalf("unexpected replay: state=%s steps=%d frames=%d", replay.State, replay.Steps, len(replay.Frames))
	}
	first := replay.Frames[0].Text
	if first != "...\n###\n...\n" {
		t.Fatalf("unexpected first frame:\n%s", first)
	}
	if replay.Frames[1].Text != ".#.\n.#.\n.#.\n" {
		t.Fatalf("unexpected second frame:\n%s", replay.Frames[1].Text)
	}
}

func TestSimulateDeadBoardRendersWholeGrid(t *testing.T) {
	shape := automaton.Shape{Width: 3, Height: 2}
	replay, err := Simulate(shape, automaton.FullWindow(shape), genome.New(6), 5, DefaultOptions())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if replay.Frames[0].Text != "...\n...\n" {
		t.Fatalf("unexpected dead frame:\n%s", replay.Frames[0].Text)
	}
}

func TestSimulateRejectsBadGenome(t *testing.T) {
	shape := automaton.Shape{Width: 3, Height: 3}
	if _, err := Simulate(shape, automaton.FullWindow(shape), genome.New(4), 5, DefaultOptions()); err == nil {
		t.Fatal("expected genome length error")
	}
}

func TestWriteReplayAlwaysPrintsLastFrame(t *testing.T) {
	replay := Replay{
		Frames: []Frame{{Step: 0, Text: "a\n"}, {Step: 1, Text: "b\n"}, {Step: 2, Text: "c\n"}},
		State:  automaton.Stabilized,
		Steps:  2,
	}
	var buf bytes.Buffer
	if err := WriteReplay(&buf, replay, 5); err != nil {
		t.Fatalf("write replay: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "step 0") || strings.Contains(out, "step 1") || !strings.Contains(out, "step 2") {
		t.Fatalf("unexpected frame selection:\n%s", out)
	}
	if !strings.Contains(out, "final state=stabilized steps=2") {
		t.Fatalf("missing summary line:\n%s", out)
	}
}
