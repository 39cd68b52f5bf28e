package analysis

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/MaxVarverakis/TKN-Physarum/internal/cache"
	"github.com/MaxVarverakis/TKN-Physarum/internal/output"
	"github.com/MaxVarverakis/TKN-Physarum/internal/testutil"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/binning"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/config"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/render"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
)

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return New(opts...)
}

func patternInput(pattern string, count int) Input {
	return Input{Pattern: pattern, Start: 0, Count: count}
}

func TestPathsFilesTakePrecedence(t *testing.T) {
	svc := newService(t)

	paths, err := svc.Paths(Input{Files: []string{"b.txt", "a.txt"}, Pattern: "kdata/{i}.txt", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "a.txt"}, paths)

	paths, err = svc.Paths(patternInput("kdata/{i}.txt", 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"kdata/0.txt", "kdata/1.txt", "kdata/2.txt"}, paths)
}

func TestInputFromConfig(t *testing.T) {
	in := InputFromConfig(config.DefaultConfig().Input)
	assert.Equal(t, "kdata/{i}.txt", in.Pattern)
	assert.Equal(t, 3, in.Count)
	assert.Empty(t, in.Files)
}

func TestStats(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{1, 2}, []float64{3})
	svc := newService(t)

	res, err := svc.Stats(context.Background(), patternInput(pattern, 2))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.Count)
	assert.InDelta(t, 2.0, res.Summary.Mean, 1e-12)
	assert.InDelta(t, 0.816496580927726, res.Summary.StdDev, 1e-12)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, 2, res.Sources[0].Count)
	assert.Equal(t, 1, res.Sources[1].Count)
}

func TestStatsProgress(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 4, []float64{1}, []float64{2}, []float64{3})
	svc := newService(t)

	var ticks atomic.Int32
	in := Input{Pattern: pattern, Start: 4, Count: 3, Workers: 2, OnProgress: func() { ticks.Add(1) }}
	_, err := svc.Stats(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int32(3), ticks.Load())
}

func TestStatsErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Stats(ctx, patternInput("kdata/{i}.txt", 0))
	assert.ErrorIs(t, err, sample.ErrNoFiles)

	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "0.txt"), "# header only\n")
	_, err = svc.Stats(ctx, patternInput(filepath.Join(dir, "{i}.txt"), 1))
	assert.ErrorIs(t, err, sample.ErrEmptySample)

	_, err = svc.Stats(ctx, patternInput(filepath.Join(dir, "missing-{i}.txt"), 1))
	assert.Error(t, err)
}

func TestStatsUsesCache(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{5, 6, 7})
	c, err := cache.New(t.TempDir(), 0, true)
	require.NoError(t, err)
	svc := newService(t, WithCache(c))

	first, err := svc.Stats(context.Background(), patternInput(pattern, 1))
	require.NoError(t, err)
	assert.False(t, first.Sources[0].Cached)

	second, err := svc.Stats(context.Background(), patternInput(pattern, 1))
	require.NoError(t, err)
	assert.True(t, second.Sources[0].Cached)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestHistogramOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Histogram.Spacing = "log"
	cfg.Histogram.Bins = 12

	opts, err := HistogramOptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, binning.Log, opts.Spacing)
	assert.Equal(t, 12, opts.Bins)
	assert.Equal(t, "ΔF", opts.Plot.XLabel)
	assert.True(t, opts.Plot.LogX)

	cfg.Histogram.Spacing = "cubic"
	_, err = HistogramOptionsFromConfig(cfg)
	assert.Error(t, err)
}

func TestHistogramLinear(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{1, 2, 3}, []float64{4, 5, 6})
	svc := newService(t)

	res, err := svc.Histogram(context.Background(), patternInput(pattern, 2), HistogramOptions{
		Bins:    5,
		Spacing: binning.Linear,
		Plot:    render.Options{LogX: true},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Plot)

	h := res.Histogram
	require.Len(t, h.Bins, 5)
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	assert.Equal(t, 6, total)
	assert.Equal(t, 6, h.Total)
	assert.Equal(t, 0, h.Outside)
	assert.Equal(t, 6.0, h.Edges[len(h.Edges)-1])
}

func TestHistogramLogSpacing(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{1, 20, 100})
	svc := newService(t)

	res, err := svc.Histogram(context.Background(), patternInput(pattern, 1), HistogramOptions{
		Bins:     2,
		Spacing:  binning.Log,
		SkipPlot: true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Plot)

	h := res.Histogram
	require.Len(t, h.Edges, 3)
	assert.InDelta(t, 1.0, h.Edges[0], 1e-12)
	assert.InDelta(t, 10.0, h.Edges[1], 1e-9)
	assert.InDelta(t, 100.0, h.Edges[2], 1e-12)
	assert.Equal(t, 1, h.Bins[0].Count)
	assert.Equal(t, 2, h.Bins[1].Count)
}

func TestHistogramLogAxisMasksNonPositiveBins(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{-1, 0, 1})
	svc := newService(t)

	res, err := svc.Histogram(context.Background(), patternInput(pattern, 1), HistogramOptions{
		Bins:    3,
		Spacing: binning.Linear,
		Plot:    render.Options{LogX: true},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Plot)
	assert.Equal(t, 2, res.Masked, "-1 and 0 sit in bins starting below zero")
	assert.Equal(t, 3, res.Histogram.Total)

	var buf bytes.Buffer
	require.NoError(t, output.NewWriterFormatter(output.FormatText, &buf, false).Output(res.Report()))
	assert.Contains(t, buf.String(), "2 values in bins at or below zero not drawn")
}

func TestHistogramPlotFailureKeepsSummary(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{-3, -2, -1})
	svc := newService(t)

	res, err := svc.Histogram(context.Background(), patternInput(pattern, 1), HistogramOptions{
		Bins:    2,
		Spacing: binning.Linear,
		Plot:    render.Options{LogX: true},
	})
	require.ErrorIs(t, err, render.ErrLogScale)
	require.NotNil(t, res)
	assert.Nil(t, res.Plot)
	assert.Equal(t, 3, res.Summary.Count)
	assert.InDelta(t, -2.0, res.Summary.Mean, 1e-12)
}

func TestHistogramDegenerateLog(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{-3, -2, -1})
	svc := newService(t)

	_, err := svc.Histogram(context.Background(), patternInput(pattern, 1), HistogramOptions{
		Bins:     4,
		Spacing:  binning.Log,
		SkipPlot: true,
	})
	assert.ErrorIs(t, err, binning.ErrDegenerateRange)
}

func TestRank(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{3, 1}, []float64{0, 2})
	svc := newService(t)

	opts := RankOptionsFromConfig(config.DefaultConfig())
	opts.Top = 2
	res, err := svc.Rank(context.Background(), patternInput(pattern, 2), opts)
	require.NoError(t, err)

	require.Len(t, res.Points, 4)
	require.Len(t, res.Top, 2)
	assert.Equal(t, 3.0, res.Top[0].Value)
	assert.Equal(t, 2.0, res.Top[1].Value)
	assert.Equal(t, 1, res.Omitted, "zero cannot be drawn on a log axis")
	assert.NotNil(t, res.Plot)
}

func TestPublish(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{1, 2, 3, 4})
	var shown string
	svc := newService(t, WithViewer(func(_ *plot.Plot, _ render.Options, title string) error {
		shown = title
		return nil
	}))

	res, err := svc.Histogram(context.Background(), patternInput(pattern, 1), HistogramOptions{Bins: 2, Spacing: binning.Linear})
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "plots", "hist.png")
	require.NoError(t, svc.Publish(res.Plot, PublishOptions{File: file, Show: true, Title: "ΔF"}))
	assert.True(t, testutil.FileExists(file))
	assert.Equal(t, "ΔF", shown)

	err = svc.Publish(res.Plot, PublishOptions{File: filepath.Join(t.TempDir(), "hist.bmp")})
	assert.ErrorIs(t, err, render.ErrFormat)

	assert.ErrorIs(t, svc.Publish(nil, PublishOptions{}), render.ErrNoData)
}

func TestPublishViewerError(t *testing.T) {
	boom := errors.New("no display")
	svc := newService(t, WithViewer(func(*plot.Plot, render.Options, string) error { return boom }))

	err := svc.Publish(plot.New(), PublishOptions{Show: true})
	assert.ErrorIs(t, err, boom)
}

func TestReports(t *testing.T) {
	pattern := testutil.SampleDir(t, t.TempDir(), 0, []float64{1, 2, 3})
	svc := newService(t)
	ctx := context.Background()
	in := patternInput(pattern, 1)

	st, err := svc.Stats(ctx, in)
	require.NoError(t, err)
	hist, err := svc.Histogram(ctx, in, HistogramOptions{Bins: 3, Spacing: binning.Linear, SkipPlot: true})
	require.NoError(t, err)
	rank, err := svc.Rank(ctx, in, RankOptions{Descending: true, Top: 2, SkipPlot: true})
	require.NoError(t, err)

	tests := []struct {
		name   string
		report output.Renderable
		want   []string
	}{
		{"stats", st.Report(), []string{"Mean : 2.00e+00 \t Sigma : 8.16e-01", "Sources", "VALUES"}},
		{"hist", hist.Report(), []string{"Distribution", "[1, 1.67)", "[2.33, 3]", "Bins (linear, 3)"}},
		{"rank", rank.Report(), []string{"Top 2 of 3 (descending)", "3.0000e+00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, output.NewWriterFormatter(output.FormatText, &buf, false).Output(tt.report))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}

			buf.Reset()
			require.NoError(t, output.NewWriterFormatter(output.FormatJSON, &buf, false).Output(tt.report))
			assert.True(t, strings.HasPrefix(buf.String(), "{"))
			assert.Contains(t, buf.String(), `"summary"`)
		})
	}
}
