package app

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

var ErrNothingToPlot = errors.New("nothing to plot")

var modulationColors = map[teb.Modulation]color.Color{
	teb.ModulationNRZ:  color.RGBA{B: 255, A: 255},
	teb.ModulationNRZT: color.RGBA{G: 128, A: 255},
	teb.ModulationRZ:   color.RGBA{R: 255, A: 255},
}

var withoutCodeurDashes = []vg.Length{vg.Points(6), vg.Points(4)}

// positivePoints pairs x with y, skipping the points a log scale cannot show
func positivePoints(x, y []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(x))
	for i := range x {
		if y[i] > 0 {
			xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	return xys
}

// newCurvesPlot draws both TEB curves of every series on a log scale.
// It returns the plot and the number of points drawn.
func newCurvesPlot(series []*Series, labels *Labels) (*plot.Plot, int, error) {
	p := plot.New()
	p.Title.Text = labels.CurvesTitle()
	p.X.Label.Text = labels.SNRAxis()
	p.Y.Label.Text = labels.TEBAxis()
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var points int
	for _, s := range series {
		curves := []struct {
			values []float64
			codeur bool
		}{
			{s.TEBWithout, false},
			{s.TEBWithCodeur, true},
		}

		for _, curve := range curves {
			xys := positivePoints(s.SNR, curve.values)
			if len(xys) == 0 {
				continue
			}

			line, err := plotter.NewLine(xys)
			if err != nil {
				return nil, 0, fmt.Errorf("%s curve: %w", s.Modulation, err)
			}
			line.Color = modulationColors[s.Modulation]
			line.Width = vg.Points(1.5)
			if !curve.codeur {
				line.Dashes = withoutCodeurDashes
			}

			p.Add(line)
			p.Legend.Add(labels.Legend(s.Modulation, curve.codeur), line)
			points += len(xys)
		}
	}

	if points == 0 {
		return nil, 0, ErrNothingToPlot
	}
	return p, points, nil
}
