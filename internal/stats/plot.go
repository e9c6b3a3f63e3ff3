package stats

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"lifeevo/internal/model"
)

// PlotFitness draws best and mean fitness per generation and saves the chart
// to path. The image format follows the file extension.
func PlotFitness(path, title string, records []model.GenerationRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no generation records to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestPts := make(plotter.XYs, len(records))
	meanPts := make(plotter.XYs, len(records))
	for i, record := range records {
		bestPts[i].X = float64(record.Generation)
		bestPts[i].Y = record.BestFitness
		meanPts[i].X = float64(record.Generation)
		meanPts[i].Y = record.MeanFitness
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
