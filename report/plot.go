// Package report renders diagnostic artifacts for a trained model.
package report

import (
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

// PlotSize is the edge length of the square prediction plot.
const PlotSize = 5 * vg.Inch

// PredictionPlot builds a scatter of predicted against actual values with
// the identity line y = x for reference.
func PredictionPlot(actual, predicted []float64, title string) (*plot.Plot, error) {
	if len(actual) == 0 {
		return nil, errors.NewValueError("PredictionPlot", "no points to plot")
	}
	if len(actual) != len(predicted) {
		return nil, errors.NewDimensionError("PredictionPlot", len(actual), len(predicted), 0)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(actual))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
		lo = math.Min(lo, math.Min(actual[i], predicted[i]))
		hi = math.Max(hi, math.Max(actual[i], predicted[i]))
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "scatter")
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, errors.Wrap(err, "identity line")
	}
	identity.LineStyle.Width = vg.Points(1)
	identity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(s, identity, plotter.NewGrid())
	p.Legend.Add("test rows", s)
	p.Legend.Add("y = x", identity)
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// SavePredictionPlot renders the plot as PNG to path, replacing it
// atomically.
func SavePredictionPlot(path string, actual, predicted []float64, title string) error {
	p, err := PredictionPlot(actual, predicted, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotSize, PlotSize, "png")
	if err != nil {
		return errors.Wrap(err, "render plot")
	}
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return errors.WithStack(err)
	})
}
