package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MaxVarverakis/TKN-Physarum/internal/cache"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/binning"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/config"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/render"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/sample"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/stats"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/viewer"
	"gonum.org/v1/plot"
)

// Service orchestrates sample loading, statistics, binning and plotting.
type Service struct {
	cache *cache.Cache
	show  func(p *plot.Plot, opts render.Options, title string) error
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the parse cache. A nil or disabled cache parses every file.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithViewer replaces the interactive window (for testing).
func WithViewer(show func(p *plot.Plot, opts render.Options, title string) error) Option {
	return func(s *Service) {
		s.show = show
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{show: showWindow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func showWindow(p *plot.Plot, opts render.Options, title string) error {
	return viewer.Show(render.Image(p, opts), title)
}

// Input selects the sample files. Files, when set, take precedence over the
// pattern.
type Input struct {
	Files      []string
	Pattern    string
	Start      int
	Count      int
	Workers    int
	OnProgress func()
}

// InputFromConfig returns the configured pattern input.
func InputFromConfig(cfg config.InputConfig) Input {
	return Input{
		Pattern: cfg.Pattern,
		Start:   cfg.Start,
		Count:   cfg.Count,
		Workers: cfg.Workers,
	}
}

// Paths returns the files in concatenation order.
func (s *Service) Paths(in Input) ([]string, error) {
	if len(in.Files) > 0 {
		return in.Files, nil
	}
	return sample.Paths(in.Pattern, in.Start, in.Count)
}

// Load reads and concatenates every selected file.
func (s *Service) Load(ctx context.Context, in Input) (*sample.Set, error) {
	paths, err := s.Paths(in)
	if err != nil {
		return nil, err
	}

	opts := []sample.Option{
		sample.WithWorkers(in.Workers),
		sample.WithCache(s.cache),
	}
	if in.OnProgress != nil {
		opts = append(opts, sample.WithProgress(in.OnProgress))
	}
	return sample.Load(ctx, paths, opts...)
}

// StatsResult is the summary of one sample set.
type StatsResult struct {
	Summary stats.Summary   `json:"summary"`
	Sources []sample.Source `json:"sources"`
}

// Stats loads the input and summarizes it.
func (s *Service) Stats(ctx context.Context, in Input) (*StatsResult, error) {
	set, summary, err := s.loadSummary(ctx, in)
	if err != nil {
		return nil, err
	}
	return &StatsResult{Summary: summary, Sources: set.Sources}, nil
}

func (s *Service) loadSummary(ctx context.Context, in Input) (*sample.Set, stats.Summary, error) {
	set, err := s.Load(ctx, in)
	if err != nil {
		return nil, stats.Summary{}, err
	}
	summary, err := stats.Summarize(set.Values)
	if err != nil {
		return nil, stats.Summary{}, err
	}
	return set, summary, nil
}

// HistogramOptions configures histogram analysis.
type HistogramOptions struct {
	Bins     int
	Spacing  binning.Spacing
	Plot     render.Options
	SkipPlot bool
}

// HistogramOptionsFromConfig maps the histogram and plot sections.
func HistogramOptionsFromConfig(cfg *config.Config) (HistogramOptions, error) {
	spacing, err := binning.ParseSpacing(cfg.Histogram.Spacing)
	if err != nil {
		return HistogramOptions{}, err
	}
	return HistogramOptions{
		Bins:    cfg.Histogram.Bins,
		Spacing: spacing,
		Plot: render.Options{
			Title:    cfg.Histogram.Title,
			XLabel:   cfg.Histogram.XLabel,
			YLabel:   cfg.Histogram.YLabel,
			LogX:     cfg.Histogram.LogX,
			LogY:     cfg.Histogram.LogY,
			Density:  cfg.Histogram.Density,
			WidthIn:  cfg.Plot.WidthIn,
			HeightIn: cfg.Plot.HeightIn,
		},
	}, nil
}

// HistogramResult holds the summary, the counted bins and the plot.
type HistogramResult struct {
	Summary   stats.Summary     `json:"summary"`
	Sources   []sample.Source   `json:"sources"`
	Histogram binning.Histogram `json:"histogram"`
	Density   bool              `json:"density"`
	Masked    int               `json:"masked"` // values in bins a log x axis cannot show
	Plot      *plot.Plot        `json:"-"`
}

// Histogram loads the input, bins it and builds the plot. When only the plot
// fails, the result is returned along with the error so the summary can
// still be reported.
func (s *Service) Histogram(ctx context.Context, in Input, opts HistogramOptions) (*HistogramResult, error) {
	set, summary, err := s.loadSummary(ctx, in)
	if err != nil {
		return nil, err
	}

	h, err := binning.Build(set.Values, opts.Bins, opts.Spacing)
	if err != nil {
		return nil, fmt.Errorf("binning %d values: %w", set.Len(), err)
	}

	result := &HistogramResult{
		Summary:   summary,
		Sources:   set.Sources,
		Histogram: h,
		Density:   opts.Plot.Density,
	}
	_, result.Masked = render.VisibleBins(h, opts.Plot.LogX)
	if opts.SkipPlot {
		return result, nil
	}

	p, err := render.Histogram(h, opts.Plot)
	if err != nil {
		if errors.Is(err, render.ErrLogScale) {
			return result, fmt.Errorf("histogram plot: %w (try --spacing log or --log-x=false)", err)
		}
		return result, fmt.Errorf("histogram plot: %w", err)
	}
	result.Plot = p
	return result, nil
}

// RankOptions configures rank analysis.
type RankOptions struct {
	Descending bool
	Top        int
	Plot       render.Options
	SkipPlot   bool
}

// RankOptionsFromConfig maps the rank and plot sections.
func RankOptionsFromConfig(cfg *config.Config) RankOptions {
	return RankOptions{
		Descending: cfg.Rank.Descending,
		Top:        cfg.Rank.Top,
		Plot: render.Options{
			Title:    cfg.Rank.Title,
			XLabel:   cfg.Rank.XLabel,
			YLabel:   cfg.Rank.YLabel,
			LogX:     cfg.Rank.LogX,
			LogY:     cfg.Rank.LogY,
			WidthIn:  cfg.Plot.WidthIn,
			HeightIn: cfg.Plot.HeightIn,
		},
	}
}

// RankResult holds the rank order of a sample set.
type RankResult struct {
	Summary    stats.Summary     `json:"summary"`
	Sources    []sample.Source   `json:"sources"`
	Descending bool              `json:"descending"`
	Points     []stats.RankPoint `json:"-"`
	Top        []stats.RankPoint `json:"top"`
	Omitted    int               `json:"omitted"` // points a log axis cannot show
	Plot       *plot.Plot        `json:"-"`
}

// Rank loads the input, orders it and builds the rank plot. Like Histogram,
// a plot failure still returns the result.
func (s *Service) Rank(ctx context.Context, in Input, opts RankOptions) (*RankResult, error) {
	set, summary, err := s.loadSummary(ctx, in)
	if err != nil {
		return nil, err
	}

	points := stats.Rank(set.Values, opts.Descending)
	top := points
	if opts.Top > 0 && opts.Top < len(points) {
		top = points[:opts.Top]
	}

	result := &RankResult{
		Summary:    summary,
		Sources:    set.Sources,
		Descending: opts.Descending,
		Points:     points,
		Top:        top,
	}
	_, result.Omitted = render.Plottable(points, opts.Plot.LogX, opts.Plot.LogY)
	if opts.SkipPlot {
		return result, nil
	}

	p, err := render.Rank(points, opts.Plot)
	if err != nil {
		return result, fmt.Errorf("rank plot: %w", err)
	}
	result.Plot = p
	return result, nil
}

// PublishOptions says where a plot goes.
type PublishOptions struct {
	File   string
	Show   bool
	Title  string // window title
	Render render.Options
}

// Publish writes p to File when set, then opens the interactive window when
// Show is set. Showing blocks until the window is closed.
func (s *Service) Publish(p *plot.Plot, opts PublishOptions) error {
	if p == nil {
		return render.ErrNoData
	}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create plot directory: %w", err)
			}
		}
		if err := render.Save(p, opts.File, opts.Render); err != nil {
			return err
		}
	}
	if opts.Show {
		title := opts.Title
		if title == "" {
			title = "kdist"
		}
		if err := s.show(p, opts.Render, title); err != nil {
			return fmt.Errorf("show plot: %w", err)
		}
	}
	return nil
}
