package render

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MaxVarverakis/TKN-Physarum/pkg/binning"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
)

func sampleHistogram(t *testing.T, spacing binning.Spacing) binning.Histogram {
	t.Helper()
	values := make([]float64, 0, 500)
	for i := 1; i <= 500; i++ {
		values = append(values, math.Pow(10, float64(i%50)/10))
	}
	h, err := binning.Build(values, 20, spacing)
	require.NoError(t, err)
	return h
}

func TestHistogramPlot(t *testing.T) {
	h := sampleHistogram(t, binning.Log)
	p, err := Histogram(h, Options{Title: "spectrum", XLabel: "ΔF", YLabel: "Count", LogX: true})
	require.NoError(t, err)

	assert.Equal(t, "spectrum", p.Title.Text)
	assert.Equal(t, "ΔF", p.X.Label.Text)
	assert.IsType(t, plot.LogScale{}, p.X.Scale)
}

func TestHistogramLogXMasksNonPositiveBins(t *testing.T) {
	h, err := binning.Build([]float64{0, 1e-3, 2e-3, 5e-3, 1e-2}, 60, binning.Linear)
	require.NoError(t, err)

	visible, masked := VisibleBins(h, true)
	assert.Len(t, visible, 59)
	assert.Equal(t, 1, masked, "the zero value sits in the bin starting at 0")
	assert.Greater(t, visible[0].Min, 0.0)

	p, err := Histogram(h, Options{LogX: true})
	require.NoError(t, err)
	assert.IsType(t, plot.LogScale{}, p.X.Scale)

	all, masked := VisibleBins(h, false)
	assert.Len(t, all, 60)
	assert.Zero(t, masked)
}

func TestHistogramLogXRejectsAllNonPositive(t *testing.T) {
	h, err := binning.Build([]float64{-3, -2, -1}, 2, binning.Linear)
	require.NoError(t, err)

	_, err = Histogram(h, Options{LogX: true})
	assert.ErrorIs(t, err, ErrLogScale)
}

func TestHistogramLogYRejectsEmptyBins(t *testing.T) {
	h, err := binning.Count(nil, []float64{1, 2, 3})
	require.NoError(t, err)

	_, err = Histogram(h, Options{LogY: true})
	assert.ErrorIs(t, err, ErrLogScale)
}

func TestHistogramEmpty(t *testing.T) {
	_, err := Histogram(binning.Histogram{}, Options{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPlottable(t *testing.T) {
	points := []stats.RankPoint{
		{Rank: 1, Value: 10},
		{Rank: 2, Value: 0},
		{Rank: 3, Value: -1},
		{Rank: 4, Value: math.Inf(1)},
	}

	xys, omitted := Plottable(points, true, true)
	assert.Len(t, xys, 1)
	assert.Equal(t, 3, omitted)

	xys, omitted = Plottable(points, false, false)
	assert.Len(t, xys, 3)
	assert.Equal(t, 1, omitted)
}

func TestRankPlot(t *testing.T) {
	points := stats.Rank([]float64{5, 3, 8, 1, 2}, true)
	p, err := Rank(points, Options{LogX: true, LogY: true, XLabel: "Rank"})
	require.NoError(t, err)
	assert.Equal(t, "Rank", p.X.Label.Text)
}

func TestRankPlotNoPositiveValues(t *testing.T) {
	points := stats.Rank([]float64{-5, -3, 0}, true)
	_, err := Rank(points, Options{LogY: true})
	assert.ErrorIs(t, err, ErrLogScale)

	_, err = Rank(nil, Options{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSaveFormats(t *testing.T) {
	h := sampleHistogram(t, binning.Linear)
	p, err := Histogram(h, Options{})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"hist.png", "hist.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(p, path, Options{WidthIn: 3, HeightIn: 2}))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	err = Save(p, filepath.Join(dir, "hist.bmp"), Options{})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestImageSize(t *testing.T) {
	h := sampleHistogram(t, binning.Linear)
	p, err := Histogram(h, Options{})
	require.NoError(t, err)

	img := Image(p, Options{WidthIn: 2, HeightIn: 1})
	b := img.Bounds()
	// vgimg rasterizes at 96 DPI by default.
	assert.InDelta(t, 192, b.Dx(), 1)
	assert.InDelta(t, 96, b.Dy(), 1)
}
