package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MaxVarverakis/TKN-Physarum/pkg/binning"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/sample"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration options for kdist.
type Config struct {
	// Where the sample files live
	Input InputConfig `koanf:"input" toml:"input"`

	// Histogram binning and labels
	Histogram HistogramConfig `koanf:"histogram" toml:"histogram"`

	// Rank plot settings
	Rank RankConfig `koanf:"rank" toml:"rank"`

	// Plot canvas settings shared by all plots
	Plot PlotConfig `koanf:"plot" toml:"plot"`

	// Parse cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// InputConfig describes how sample file paths are constructed.
type InputConfig struct {
	Pattern string `koanf:"pattern" toml:"pattern"` // e.g. kdata/{i}.txt
	Start   int    `koanf:"start" toml:"start"`
	Count   int    `koanf:"count" toml:"count"`
	Workers int    `koanf:"workers" toml:"workers"` // 0 = 2x NumCPU
}

// HistogramConfig controls histogram construction and presentation.
type HistogramConfig struct {
	Bins    int    `koanf:"bins" toml:"bins"`
	Spacing string `koanf:"spacing" toml:"spacing"` // linear, log
	LogX    bool   `koanf:"log_x" toml:"log_x"`
	LogY    bool   `koanf:"log_y" toml:"log_y"`
	Density bool   `koanf:"density" toml:"density"`
	XLabel  string `koanf:"x_label" toml:"x_label"`
	YLabel  string `koanf:"y_label" toml:"y_label"`
	Title   string `koanf:"title" toml:"title"`
	File    string `koanf:"file" toml:"file"`
}

// RankConfig controls rank plots.
type RankConfig struct {
	Descending bool   `koanf:"descending" toml:"descending"`
	LogX       bool   `koanf:"log_x" toml:"log_x"`
	LogY       bool   `koanf:"log_y" toml:"log_y"`
	XLabel     string `koanf:"x_label" toml:"x_label"`
	YLabel     string `koanf:"y_label" toml:"y_label"`
	Title      string `koanf:"title" toml:"title"`
	File       string `koanf:"file" toml:"file"`
	Top        int    `koanf:"top" toml:"top"`
}

// PlotConfig sets the canvas size in inches and whether to open a window.
type PlotConfig struct {
	WidthIn  float64 `koanf:"width_in" toml:"width_in"`
	HeightIn float64 `koanf:"height_in" toml:"height_in"`
	Show     bool    `koanf:"show" toml:"show"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config matching the layout the simulation writes:
// three runs under kdata/, 60 bins, log-scaled x axis.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Pattern: "kdata/" + sample.IndexPlaceholder + ".txt",
			Start:   0,
			Count:   3,
		},
		Histogram: HistogramConfig{
			Bins:    60,
			Spacing: "linear",
			LogX:    true,
			XLabel:  "ΔF",
			YLabel:  "Count",
			File:    "hist.png",
		},
		Rank: RankConfig{
			Descending: true,
			LogX:       true,
			LogY:       true,
			XLabel:     "Rank",
			YLabel:     "Value",
			File:       "rank.png",
			Top:        20,
		},
		Plot: PlotConfig{
			WidthIn:  6,
			HeightIn: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".kdist/cache",
			TTL:     168,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configNames are searched in order in each of searchDirs.
var configNames = []string{
	"kdist.toml",
	"kdist.yaml",
	"kdist.yml",
	"kdist.json",
	".kdist.toml",
	".kdist.yaml",
	".kdist.yml",
	".kdist.json",
}

var searchDirs = []string{".", ".kdist"}

// FindConfigFile returns the first config file found in the standard locations,
// or "" if there is none.
func FindConfigFile() string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadResult is a loaded config and the file it came from ("" for defaults).
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads from an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads and validates configuration. A file that exists but fails
// to parse or validate is reported as an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

var validFormats = map[string]bool{"text": true, "json": true, "markdown": true, "md": true, "toon": true}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Input.Pattern == "":
		return fmt.Errorf("%w: input.pattern is empty", ErrInvalid)
	case c.Input.Count > 1 && !strings.Contains(c.Input.Pattern, sample.IndexPlaceholder):
		return fmt.Errorf("%w: input.pattern %q has no %s placeholder but input.count is %d",
			ErrInvalid, c.Input.Pattern, sample.IndexPlaceholder, c.Input.Count)
	case c.Input.Workers < 0:
		return fmt.Errorf("%w: input.workers must be >= 0", ErrInvalid)
	case c.Histogram.Bins < 1:
		return fmt.Errorf("%w: histogram.bins must be >= 1, got %d", ErrInvalid, c.Histogram.Bins)
	case !validSpacing(c.Histogram.Spacing):
		return fmt.Errorf("%w: histogram.spacing %q (want linear or log)", ErrInvalid, c.Histogram.Spacing)
	case c.Plot.WidthIn <= 0 || c.Plot.HeightIn <= 0:
		return fmt.Errorf("%w: plot size must be positive", ErrInvalid)
	case c.Rank.Top < 0:
		return fmt.Errorf("%w: rank.top must be >= 0", ErrInvalid)
	case !validFormats[strings.ToLower(c.Output.Format)]:
		return fmt.Errorf("%w: output.format %q", ErrInvalid, c.Output.Format)
	}
	return nil
}

func validSpacing(s string) bool {
	_, err := binning.ParseSpacing(s)
	return err == nil
}
