package main

import (
	"fmt"

	"github.com/MaxVarverakis/TKN-Physarum/internal/service/analysis"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/config"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
)

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Aliases:   []string{"st"},
		Usage:     "Print mean, standard deviation and extrema of the concatenated samples",
		ArgsUsage: "[file...]",
		Flags:     inputFlags(),
		Action:    runStatsCmd,
	}
}

func runStatsCmd(c *cli.Context) error {
	e, err := newEnv(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext(c)
	defer cancel()

	in := e.input(c)
	tracker := e.track(&in)
	result, err := e.svc.Stats(ctx, in)
	e.finish(tracker)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	return e.formatter.Output(result.Report())
}

func histCmd() *cli.Command {
	flags := append(inputFlags(),
		&cli.IntFlag{
			Name:    "bins",
			Aliases: []string{"b"},
			Usage:   "Number of bins",
		},
		&cli.StringFlag{
			Name:  "spacing",
			Usage: "Bin spacing: linear or log",
		},
		&cli.BoolFlag{
			Name:  "density",
			Usage: "Plot densities instead of counts",
		},
	)
	return &cli.Command{
		Name:      "hist",
		Aliases:   []string{"hi"},
		Usage:     "Bin the concatenated samples and plot a histogram",
		ArgsUsage: "[file...]",
		Flags:     append(flags, plotFlags()...),
		Action:    runHistCmd,
	}
}

func applyHistFlags(c *cli.Context, cfg *config.Config) {
	h := &cfg.Histogram
	if c.IsSet("bins") {
		h.Bins = c.Int("bins")
	}
	if c.IsSet("spacing") {
		h.Spacing = c.String("spacing")
	}
	if c.IsSet("density") {
		h.Density = c.Bool("density")
	}
	if c.IsSet("log-x") {
		h.LogX = c.Bool("log-x")
	}
	if c.IsSet("log-y") {
		h.LogY = c.Bool("log-y")
	}
	if c.IsSet("x-label") {
		h.XLabel = c.String("x-label")
	}
	if c.IsSet("y-label") {
		h.YLabel = c.String("y-label")
	}
	if c.IsSet("title") {
		h.Title = c.String("title")
	}
	if c.IsSet("plot") {
		h.File = c.String("plot")
	}
	if c.Bool("show") {
		cfg.Plot.Show = true
	}
}

func runHistCmd(c *cli.Context) error {
	e, err := newEnv(c, func(cfg *config.Config) { applyHistFlags(c, cfg) })
	if err != nil {
		return err
	}
	defer e.Close()

	opts, err := analysis.HistogramOptionsFromConfig(e.cfg)
	if err != nil {
		return err
	}
	publish := publishOptions(c, e.cfg.Histogram.File, e.cfg.Plot.Show, "Histogram")
	opts.SkipPlot = publish.File == "" && !publish.Show
	publish.Render = opts.Plot

	ctx, cancel := signalContext(c)
	defer cancel()

	in := e.input(c)
	tracker := e.track(&in)
	result, err := e.svc.Histogram(ctx, in, opts)
	e.finish(tracker)
	if result == nil {
		return fmt.Errorf("histogram failed: %w", err)
	}

	if outErr := e.formatter.Output(result.Report()); outErr != nil {
		return outErr
	}
	if err != nil {
		return fmt.Errorf("histogram failed: %w", err)
	}
	if !e.formatter.Format().Structured() {
		if n := result.Histogram.Outside; n > 0 {
			status.Warning("%d values fall outside the bin edges", n)
		}
		if n := result.Masked; n > 0 {
			status.Warning("%d values in non-positive bins are hidden by the log x axis", n)
		}
	}
	e.debugf("%d bins, %s spacing, edges [%g, %g]", len(result.Histogram.Bins), result.Histogram.Spacing,
		result.Histogram.Edges[0], result.Histogram.Edges[len(result.Histogram.Edges)-1])

	return e.publish(result.Plot, publish)
}

func rankCmd() *cli.Command {
	flags := append(inputFlags(),
		&cli.BoolFlag{
			Name:  "descending",
			Usage: "Rank 1 is the largest value (use --descending=false for smallest)",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Rows of the rank order to print (0 = all)",
		},
	)
	return &cli.Command{
		Name:      "rank",
		Aliases:   []string{"r"},
		Usage:     "Sort the concatenated samples and plot value against rank",
		ArgsUsage: "[file...]",
		Flags:     append(flags, plotFlags()...),
		Action:    runRankCmd,
	}
}

func applyRankFlags(c *cli.Context, cfg *config.Config) {
	r := &cfg.Rank
	if c.IsSet("descending") {
		r.Descending = c.Bool("descending")
	}
	if c.IsSet("top") {
		r.Top = c.Int("top")
	}
	if c.IsSet("log-x") {
		r.LogX = c.Bool("log-x")
	}
	if c.IsSet("log-y") {
		r.LogY = c.Bool("log-y")
	}
	if c.IsSet("x-label") {
		r.XLabel = c.String("x-label")
	}
	if c.IsSet("y-label") {
		r.YLabel = c.String("y-label")
	}
	if c.IsSet("title") {
		r.Title = c.String("title")
	}
	if c.IsSet("plot") {
		r.File = c.String("plot")
	}
	if c.Bool("show") {
		cfg.Plot.Show = true
	}
}

func runRankCmd(c *cli.Context) error {
	e, err := newEnv(c, func(cfg *config.Config) { applyRankFlags(c, cfg) })
	if err != nil {
		return err
	}
	defer e.Close()

	opts := analysis.RankOptionsFromConfig(e.cfg)
	publish := publishOptions(c, e.cfg.Rank.File, e.cfg.Plot.Show, "Rank")
	opts.SkipPlot = publish.File == "" && !publish.Show
	publish.Render = opts.Plot

	ctx, cancel := signalContext(c)
	defer cancel()

	in := e.input(c)
	tracker := e.track(&in)
	result, err := e.svc.Rank(ctx, in, opts)
	e.finish(tracker)
	if result == nil {
		return fmt.Errorf("rank failed: %w", err)
	}

	if outErr := e.formatter.Output(result.Report()); outErr != nil {
		return outErr
	}
	if err != nil {
		return fmt.Errorf("rank failed: %w", err)
	}
	return e.publish(result.Plot, publish)
}

// publishOptions resolves --no-plot against the configured plot file.
func publishOptions(c *cli.Context, file string, show bool, title string) analysis.PublishOptions {
	if c.Bool("no-plot") {
		file = ""
	}
	return analysis.PublishOptions{File: file, Show: show, Title: "kdist: " + title}
}

func (e *env) publish(p *plot.Plot, opts analysis.PublishOptions) error {
	if opts.File == "" && !opts.Show {
		return nil
	}
	if err := e.svc.Publish(p, opts); err != nil {
		return err
	}
	if opts.File != "" {
		status.Success("Plot written to %s", opts.File)
	}
	return nil
}
