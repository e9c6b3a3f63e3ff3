package stats

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"testing"

	"lifeevo/internal/model"
)

func sampleHistory() []model.GenerationRecord {
	return []model.GenerationRecord{
		{Generation: 1, BestGenome: "4:1", BestFitness: 2, MeanFitness: 1, BestSteps: 3, UniqueGenomes: 5},
		{Generation: 2, BestGenome: "4:3", BestFitness: 4, MeanFitness: 2, BestSteps: 3, UniqueGenomes: 5},
		{Generation: 3, BestGenome: "4:7", BestFitness: 6, MeanFitness: 4, BestSteps: 3, UniqueGenomes: 5},
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{2, 4, 6})
	scale := math.Sqrt(8.0 / 3)
	want := []float64{-2 / scale, 0, 2 / scale}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("normalized[%d]=%f want %f", i, got[i], want[i])
		}
	}
	for i, v := range Normalize([]float64{3, 3, 3}) {
		if v != 0 {
			t.Fatalf("constant series should normalize to zero, got %f at %d", v, i)
		}
	}
	if len(Normalize(nil)) != 0 {
		t.Fatal("expected empty normalization")
	}
}

func TestSummarize(t *testing.T) {
	summaries := Summarize([]Series{
		{Name: "a", Values: []float64{2, 4, 6}},
		{Name: "single", Values: []float64{7}},
		{Name: "empty"},
	})
	if len(summaries) != 3 {
		t.Fatalf("unexpected summary count: %d", len(summaries))
	}
	a := summaries[0]
	if a.Min != 2 || a.Max != 6 || a.Mean != 4 || math.Abs(a.StdDev-2) > 1e-12 {
		t.Fatalf("unexpected summary: %+v", a)
	}
	if summaries[1].StdDev != 0 || summaries[1].Mean != 7 {
		t.Fatalf("unexpected single summary: %+v", summaries[1])
	}
	if summaries[2] != (ColumnSummary{Name: "empty"}) {
		t.Fatalf("unexpected empty summary: %+v", summaries[2])
	}
}

func TestWriteHistoryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, sampleHistory()); err != nil {
		t.Fatalf("write history: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	columns := len(HistorySeries(nil))
	if len(rows[0]) != 2+2*columns {
		t.Fatalf("unexpected column count: %d", len(rows[0]))
	}
	if rows[0][2] != "best_fitness" || rows[0][2+columns] != "best_fitness_normalized" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[2][0] != "2" || rows[2][1] != "4:3" || rows[2][2] != "4" || rows[2][2+columns] != "0" {
		t.Fatalf("unexpected middle row: %v", rows[2])
	}
}

func TestExportHistoryWritesAllFiles(t *testing.T) {
	outDir := t.TempDir()
	paths, err := ExportHistory(outDir, "run-1", sampleHistory())
	if err != nil {
		t.Fatalf("export history: %v", err)
	}
	for _, path := range []string{paths.History, paths.Summary, paths.Plot} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected non-empty %s", path)
		}
	}

	if _, err := ExportHistory(outDir, "empty", nil); err == nil {
		t.Fatal("expected error for empty history")
	}
}
