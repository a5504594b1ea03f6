package app

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

var histogramFill = color.RGBA{R: 255, G: 165, A: 255}

// newHistogramPlot bins samples over their full range and shows [min, max]
func newHistogramPlot(samples []float64, config *HistogramConfig, labels *Labels) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, ErrNothingToPlot
	}

	h, err := plotter.NewHist(plotter.Values(samples), config.Bins)
	if err != nil {
		return nil, fmt.Errorf("binning samples: %w", err)
	}
	h.FillColor = histogramFill
	h.LineStyle.Color = color.Black

	p := plot.New()
	p.Title.Text = labels.HistogramTitle()
	p.X.Label.Text = labels.NoiseAxis()
	p.Y.Label.Text = labels.FrequencyAxis()
	p.Add(h)

	// Add widens the axes to the data, the view is narrowed afterwards
	p.X.Min, p.X.Max = config.Min, config.Max
	return p, nil
}
