package sample

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MaxVarverakis/TKN-Physarum/internal/cache"
	"github.com/MaxVarverakis/TKN-Physarum/internal/fileproc"
)

// Loader reads sample files in parallel and concatenates them in path order.
type Loader struct {
	workers    int
	cache      *cache.Cache
	onProgress func()
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers bounds the number of files parsed at once (<= 0 means 2x NumCPU).
func WithWorkers(n int) Option {
	return func(l *Loader) {
		l.workers = n
	}
}

// WithCache reuses parsed values for files whose contents have not changed.
func WithCache(c *cache.Cache) Option {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithProgress is called once per file, from any goroutine.
func WithProgress(fn func()) Option {
	return func(l *Loader) {
		l.onProgress = fn
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type fileResult struct {
	values []float64
	cached bool
}

// Load reads every path and returns their concatenation. Any file that is
// missing or malformed fails the whole load.
func (l *Loader) Load(ctx context.Context, paths []string) (*Set, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	results, errs := fileproc.MapOrdered(ctx, paths, l.workers, l.loadFile, l.onProgress)
	if errs != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		failed := errs.Sorted()
		if len(failed) == 1 {
			return nil, failed[0]
		}
		names := make([]string, len(failed))
		for i, pe := range failed {
			names[i] = filepath.Base(pe.Path)
		}
		return nil, fmt.Errorf("%d of %d files failed to load (%s), first: %w",
			len(failed), len(paths), strings.Join(names, ", "), failed[0])
	}

	perFile := make([][]float64, len(results))
	for i, r := range results {
		perFile[i] = r.values
	}
	set := Concat(paths, perFile)
	for i, r := range results {
		set.Sources[i].Cached = r.cached
	}

	if set.Len() == 0 {
		return nil, ErrEmptySample
	}
	return set, nil
}

func (l *Loader) loadFile(_ context.Context, path string) (fileResult, error) {
	if !l.cache.Enabled() {
		values, err := ParseFile(path)
		return fileResult{values: values}, err
	}

	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = l.cache.Invalidate(key)
		return fileResult{}, err
	}
	hash := cache.HashBytes(data)
	if values, ok := l.cache.Get(key, hash); ok {
		return fileResult{values: values, cached: true}, nil
	}

	values, err := parseData(path, data)
	if err != nil {
		// The entry describes contents that no longer parse.
		_ = l.cache.Invalidate(key)
		return fileResult{}, err
	}
	// A failed write only costs a re-parse next time.
	_ = l.cache.Set(key, hash, values)
	return fileResult{values: values}, nil
}

// Load is a convenience for NewLoader(opts...).Load(ctx, paths).
func Load(ctx context.Context, paths []string, opts ...Option) (*Set, error) {
	return NewLoader(opts...).Load(ctx, paths)
}
