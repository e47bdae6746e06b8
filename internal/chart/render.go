// Package chart renders the dashboard's line chart of a numeric column.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 360
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	XLabel string
	YLabel string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.XLabel == "" {
		o.XLabel = "Row"
	}
	return o
}

// LinePNG draws ys against xs as a single line series and writes a PNG to w.
//
// xs and ys must have the same length. A single point is drawn as a short flat
// segment and a constant series gets a one-unit margin, since the renderer
// rejects zero-width ranges.
func LinePNG(w io.Writer, title string, xs, ys []float64, opts Options) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("chart: %d x values for %d y values", len(xs), len(ys))
	}
	if len(ys) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	if len(xs) == 1 {
		xs = []float64{xs[0], xs[0] + 1}
		ys = []float64{ys[0], ys[0]}
	}

	// Left nil so the renderer derives the range from the series.
	var yRange chart.Range
	if lo, hi := bounds(ys); lo == hi {
		yRange = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := chart.Chart{
		Title:  title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Name: opts.XLabel},
		YAxis: chart.YAxis{Name: opts.YLabel, Range: yRange},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    opts.YLabel,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotColor:    chart.ColorBlue,
					DotWidth:    2,
				},
			},
		},
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func bounds(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}
