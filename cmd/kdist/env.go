package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MaxVarverakis/TKN-Physarum/internal/cache"
	"github.com/MaxVarverakis/TKN-Physarum/internal/output"
	"github.com/MaxVarverakis/TKN-Physarum/internal/progress"
	"github.com/MaxVarverakis/TKN-Physarum/internal/service/analysis"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/config"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// inputFlags are shared by every command that loads samples.
func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "pattern",
			Aliases: []string{"p"},
			Usage:   "File pattern with an {i} index placeholder (ignored when files are given)",
		},
		&cli.IntFlag{
			Name:  "start",
			Usage: "First index substituted into the pattern",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "Number of indices to expand",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Files parsed in parallel (0 = 2x CPUs)",
		},
	}
}

// plotFlags are shared by hist and rank.
func plotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "log-x", Usage: "Log-scale the x axis"},
		&cli.BoolFlag{Name: "log-y", Usage: "Log-scale the y axis"},
		&cli.StringFlag{Name: "x-label", Usage: "X axis label"},
		&cli.StringFlag{Name: "y-label", Usage: "Y axis label"},
		&cli.StringFlag{Name: "title", Usage: "Plot title"},
		&cli.StringFlag{Name: "plot", Usage: "Plot file (png, svg, pdf, eps, jpg, tif)"},
		&cli.BoolFlag{Name: "no-plot", Usage: "Do not write a plot file"},
		&cli.BoolFlag{Name: "show", Usage: "Open the plot in a window and wait until it is closed"},
	}
}

// env is the per-invocation state shared by the data commands.
type env struct {
	cfg       *config.Config
	source    string
	svc       *analysis.Service
	formatter *output.Formatter
	verbose   bool
}

// loadConfig resolves --config or the default search locations.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

// newEnv loads configuration, applies global and input flags, then
// validates the result. apply runs before validation so command flags
// are checked too.
func newEnv(c *cli.Context, apply func(*config.Config)) (*env, error) {
	result, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.IsSet("pattern") {
		cfg.Input.Pattern = c.String("pattern")
	}
	if c.IsSet("start") {
		cfg.Input.Start = c.Int("start")
	}
	if c.IsSet("count") {
		cfg.Input.Count = c.Int("count")
	}
	if c.IsSet("workers") {
		cfg.Input.Workers = c.Int("workers")
	}
	if c.Args().Len() > 0 {
		// Explicit files replace the pattern, so its index rules no longer apply.
		cfg.Input.Pattern = c.Args().First()
		cfg.Input.Count = 1
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Output.Color {
		color.NoColor = true
	}

	pc, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", cfg.Cache.Dir, err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), cfg.Output.Color)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:       cfg,
		source:    result.Source,
		svc:       analysis.New(analysis.WithCache(pc)),
		formatter: formatter,
		verbose:   cfg.Output.Verbose,
	}
	if e.source != "" {
		e.debugf("config: %s", e.source)
	}
	return e, nil
}

func (e *env) Close() error {
	return e.formatter.Close()
}

// debugf prints to stderr when verbose output is enabled.
func (e *env) debugf(format string, args ...any) {
	if e.verbose {
		fmt.Fprintln(os.Stderr, color.HiBlackString(format, args...))
	}
}

// input builds the sample selection. Positional files win over the pattern.
func (e *env) input(c *cli.Context) analysis.Input {
	in := analysis.InputFromConfig(e.cfg.Input)
	if c.Args().Len() > 0 {
		in.Files = c.Args().Slice()
	}
	return in
}

// track attaches a progress bar to in when there is more than one file and
// returns the tracker (nil otherwise).
func (e *env) track(in *analysis.Input) *progress.Tracker {
	paths, err := e.svc.Paths(*in)
	if err != nil || len(paths) < 2 {
		return nil
	}
	e.debugf("loading %d files (%s .. %s)", len(paths), paths[0], paths[len(paths)-1])
	tracker := progress.NewTracker("Loading samples...", len(paths))
	in.OnProgress = tracker.Tick
	return tracker
}

// finish clears the progress bar and notes how many files it counted.
func (e *env) finish(t *progress.Tracker) {
	if n := t.Current(); n > 0 {
		e.debugf("read %d files", n)
	}
	t.FinishSuccess()
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
