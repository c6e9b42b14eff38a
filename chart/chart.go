// Package chart renders the exploratory plots: a fixed-bin-width histogram
// and a scatter plot side by side on one PNG canvas. Both charts draw from
// the same locally materialized rows.
package chart

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Pair describes the two charts.
type Pair struct {
	HistTitle    string
	HistXLabel   string
	BinWidth     float64
	ScatterTitle string
	ScatterX     string
	ScatterY     string
}

// Render draws the histogram over vals and the scatter over (xs, ys) and
// writes the composed canvas as a PNG to path. xs and ys must be the same
// length.
func (p Pair) Render(path string, vals, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return errors.Errorf("scatter inputs differ in length: %d vs %d", len(xs), len(ys))
	}
	if len(vals) == 0 {
		return errors.New("no rows to plot; sample fraction too small?")
	}
	hp := plot.New()
	hp.Title.Text = p.HistTitle
	hp.X.Label.Text = p.HistXLabel
	hp.Y.Label.Text = "count"
	h, err := plotter.NewHist(plotter.Values(vals), bins(vals, p.BinWidth))
	if err != nil {
		return errors.Wrap(err, "building histogram")
	}
	hp.Add(h)

	sp := plot.New()
	sp.Title.Text = p.ScatterTitle
	sp.X.Label.Text = p.ScatterX
	sp.Y.Label.Text = p.ScatterY
	xys := make(plotter.XYs, len(xs))
	for i := range xs {
		xys[i].X = xs[i]
		xys[i].Y = ys[i]
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return errors.Wrap(err, "building scatter")
	}
	sp.Add(s)

	img := vgimg.New(12*vg.Inch, 5*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: 2,
		PadX: vg.Millimeter * 4,
	}
	plots := [][]*plot.Plot{{hp, sp}}
	canvases := plot.Align(plots, tiles, dc)
	hp.Draw(canvases[0][0])
	sp.Draw(canvases[0][1])

	w, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// bins derives a bin count from the data range and the fixed bin width.
func bins(vals []float64, width float64) int {
	if width <= 0 {
		return 16
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	n := int(math.Ceil((max - min) / width))
	if n < 1 {
		n = 1
	}
	return n
}
