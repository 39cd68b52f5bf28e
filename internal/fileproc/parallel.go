// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Index int
	Path  string
	Err   error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(index int, path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Index: index, Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// First returns the error for the earliest file in input order.
func (e *ProcessingErrors) First() ProcessingError {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return ProcessingError{}
	}
	first := e.Errors[0]
	for _, pe := range e.Errors[1:] {
		if pe.Index < first.Index {
			first = pe
		}
	}
	return first
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	n := len(e.Errors)
	e.mu.Unlock()
	switch n {
	case 0:
		return "no errors"
	case 1:
		return e.First().Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", n, e.First())
	}
}

// Unwrap exposes the first error in input order so errors.Is sees through
// the collection.
func (e *ProcessingErrors) Unwrap() error {
	if !e.HasErrors() {
		return nil
	}
	return e.First()
}

// Sorted returns the collected errors ordered by input position.
func (e *ProcessingErrors) Sorted() []ProcessingError {
	e.mu.Lock()
	out := make([]ProcessingError, len(e.Errors))
	copy(out, e.Errors)
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// MapOrdered runs fn over files in parallel and returns results in input
// order: results[i] belongs to files[i]. Entries for files that failed hold
// the zero value and are reported in the returned ProcessingErrors, which is
// nil when every file succeeded. Files not started before ctx is cancelled
// fail with ctx.Err(). If maxWorkers is <= 0, defaults to 2x NumCPU.
func MapOrdered[T any](ctx context.Context, files []string, maxWorkers int, fn func(context.Context, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if onProgress != nil {
				defer onProgress()
			}

			select {
			case <-ctx.Done():
				errs.Add(i, path, ctx.Err())
				return nil
			default:
			}

			result, err := fn(ctx, path)
			if err != nil {
				errs.Add(i, path, err)
				return nil // Don't stop pool on individual file errors
			}
			results[i] = result
			return nil
		})
	}
	_ = p.Wait() // per-file errors are already captured in errs

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
