// Package render draws histograms and rank plots with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/MaxVarverakis/TKN-Physarum/pkg/binning"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	// ErrLogScale is returned when data cannot be placed on a log axis.
	ErrLogScale = errors.New("data range is not positive on a log-scaled axis")
	// ErrNoData is returned when there is nothing to draw.
	ErrNoData = errors.New("nothing to plot")
	// ErrFormat is returned for an output file extension gonum/plot cannot write.
	ErrFormat = errors.New("unsupported plot format")
)

// barColor matches the default first color of matplotlib's cycle.
var barColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// Options controls labels, axis scaling and canvas size.
type Options struct {
	Title    string
	XLabel   string
	YLabel   string
	LogX     bool
	LogY     bool
	Density  bool    // histogram bar heights are densities instead of counts
	WidthIn  float64 // inches
	HeightIn float64 // inches
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.WidthIn, o.HeightIn
	if w <= 0 {
		w = 6
	}
	if h <= 0 {
		h = 4
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

func newPlot(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	if opts.LogX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if opts.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p
}

// VisibleBins returns the bins a log x axis can show, dropping any bin whose
// lower edge is not positive, and the number of values those bins hold.
func VisibleBins(h binning.Histogram, logX bool) ([]binning.Bin, int) {
	if !logX {
		return h.Bins, 0
	}
	kept := make([]binning.Bin, 0, len(h.Bins))
	masked := 0
	for _, b := range h.Bins {
		if b.Min <= 0 {
			masked += b.Count
			continue
		}
		kept = append(kept, b)
	}
	return kept, masked
}

// Histogram draws prebuilt bins as bars. On a log x axis, bins that start at
// or below zero are left out of the plot.
func Histogram(h binning.Histogram, opts Options) (*plot.Plot, error) {
	if len(h.Bins) == 0 {
		return nil, ErrNoData
	}
	visible, _ := VisibleBins(h, opts.LogX)
	if len(visible) == 0 {
		return nil, fmt.Errorf("%w: every bin ends at or below %g", ErrLogScale, h.Bins[len(h.Bins)-1].Max)
	}

	if opts.LogY && (binning.Histogram{Bins: visible}).MaxCount() == 0 {
		return nil, fmt.Errorf("%w: every bin is empty", ErrLogScale)
	}

	bins := make([]plotter.HistogramBin, len(visible))
	for i, b := range visible {
		weight := float64(b.Count)
		if opts.Density {
			weight = b.Density
		}
		bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: weight}
	}

	bars := &plotter.Histogram{
		Bins:      bins,
		Width:     visible[0].Width(),
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
		LogY:      opts.LogY,
	}
	bars.LineStyle.Width = vg.Points(0.5)

	p := newPlot(opts)
	p.Add(bars)
	return p, nil
}

// Plottable converts rank points to XYs, omitting points a log axis or the
// plotter cannot show (non-finite, or non-positive on a log axis).
func Plottable(points []stats.RankPoint, logX, logY bool) (plotter.XYs, int) {
	xys := make(plotter.XYs, 0, len(points))
	omitted := 0
	for _, pt := range points {
		x, y := float64(pt.Rank), pt.Value
		if math.IsInf(y, 0) || math.IsNaN(y) || (logX && x <= 0) || (logY && y <= 0) {
			omitted++
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys, omitted
}

// Rank draws sorted values against their rank.
func Rank(points []stats.RankPoint, opts Options) (*plot.Plot, error) {
	xys, _ := Plottable(points, opts.LogX, opts.LogY)
	if len(xys) == 0 {
		if len(points) > 0 && opts.LogY {
			return nil, fmt.Errorf("%w: no positive values", ErrLogScale)
		}
		return nil, ErrNoData
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = barColor
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}

	p := newPlot(opts)
	p.Add(sc)
	return p, nil
}

var saveFormats = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".eps": true,
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Save writes p to path; the format follows the file extension.
func Save(p *plot.Plot, path string, opts Options) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !saveFormats[ext] {
		return fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	w, h := opts.size()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// Image rasterizes p for on-screen display.
func Image(p *plot.Plot, opts Options) image.Image {
	w, h := opts.size()
	c := vgimg.New(w, h)
	p.Draw(draw.New(c))
	return c.Image()
}
