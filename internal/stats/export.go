package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"lifeevo/internal/model"
)

// Series is one numeric column of the generation history.
type Series struct {
	Name   string
	Values []float64
}

type ColumnSummary struct {
	Name   string
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

type ExportPaths struct {
	History string
	Summary string
	Plot    string
}

// HistorySeries extracts the exported columns from generation records.
func HistorySeries(records []model.GenerationRecord) []Series {
	columns := []struct {
		name string
		get  func(model.GenerationRecord) float64
	}{
		{"best_fitness", func(r model.GenerationRecord) float64 { return r.BestFitness }},
		{"mean_fitness", func(r model.GenerationRecord) float64 { return r.MeanFitness }},
		{"median_fitness", func(r model.GenerationRecord) float64 { return r.MedianFitness }},
		{"min_fitness", func(r model.GenerationRecord) float64 { return r.MinFitness }},
		{"best_steps", func(r model.GenerationRecord) float64 { return float64(r.BestSteps) }},
		{"mean_steps", func(r model.GenerationRecord) float64 { return r.MeanSteps }},
		{"stabilized", func(r model.GenerationRecord) float64 { return float64(r.Stabilized) }},
		{"timed_out", func(r model.GenerationRecord) float64 { return float64(r.TimedOut) }},
		{"unique_genomes", func(r model.GenerationRecord) float64 { return float64(r.UniqueGenomes) }},
	}
	out := make([]Series, len(columns))
	for i, column := range columns {
		values := make([]float64, len(records))
		for j, record := range records {
			values[j] = column.get(record)
		}
		out[i] = Series{Name: column.name, Values: values}
	}
	return out
}

// Normalize returns z-scores against the population standard deviation. A
// constant series normalizes to zeros.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// Summarize reports min, max, mean and sample standard deviation per series.
func Summarize(series []Series) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(series))
	for _, s := range series {
		summary := ColumnSummary{Name: s.Name}
		if len(s.Values) > 0 {
			summary.Min = floats.Min(s.Values)
			summary.Max = floats.Max(s.Values)
			summary.Mean = stat.Mean(s.Values, nil)
		}
		if len(s.Values) > 1 {
			summary.StdDev = stat.StdDev(s.Values, nil)
		}
		out = append(out, summary)
	}
	return out
}

// WriteHistoryCSV writes one row per generation: raw columns followed by
// their normalized counterparts.
func WriteHistoryCSV(w io.Writer, records []model.GenerationRecord) error {
	series := HistorySeries(records)
	normalized := make([][]float64, len(series))
	header := []string{"generation", "best_genome"}
	for i, s := range series {
		header = append(header, s.Name)
		normalized[i] = Normalize(s.Values)
	}
	for _, s := range series {
		header = append(header, s.Name+"_normalized")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for row, record := range records {
		line := []string{strconv.Itoa(record.Generation), record.BestGenome}
		for _, s := range series {
			line = append(line, formatFloat(s.Values[row]))
		}
		for i := range series {
			line = append(line, formatFloat(normalized[i][row]))
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteSummaryCSV(w io.Writer, summaries []ColumnSummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"column", "min", "max", "mean", "stdev"}); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := writer.Write([]string{
			s.Name,
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatFloat(s.Mean),
			formatFloat(s.StdDev),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportHistory writes history.csv, summary.csv and fitness.png into outDir.
func ExportHistory(outDir, title string, records []model.GenerationRecord) (ExportPaths, error) {
	if len(records) == 0 {
		return ExportPaths{}, fmt.Errorf("no generation records to export")
	}
	if err := os.MkdirAll(outDir, defaultDirFileMode); err != nil {
		return ExportPaths{}, err
	}
	paths := ExportPaths{
		History: filepath.Join(outDir, HistoryCSVFile),
		Summary: filepath.Join(outDir, SummaryCSVFile),
		Plot:    filepath.Join(outDir, FitnessPlotFile),
	}
	if err := writeFile(paths.History, func(w io.Writer) error { return WriteHistoryCSV(w, records) }); err != nil {
		return ExportPaths{}, fmt.Errorf("write history: %w", err)
	}
	summaries := Summarize(HistorySeries(records))
	if err := writeFile(paths.Summary, func(w io.Writer) error { return WriteSummaryCSV(w, summaries) }); err != nil {
		return ExportPaths{}, fmt.Errorf("write summary: %w", err)
	}
	if err := PlotFitness(paths.Plot, title, records); err != nil {
		return ExportPaths{}, fmt.Errorf("plot fitness: %w", err)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
