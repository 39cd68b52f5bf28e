// Package sample loads numeric sample files and concatenates them into one
// sample set.
//
// Files hold whitespace-separated floating-point numbers, one or more per
// line. Lines starting with '#' are comments. The simulation writes one value
// per line to <dir>/<run>.txt, which Paths reproduces from a pattern such as
// "kdata/{i}.txt".
package sample

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// IndexPlaceholder marks where the file index goes in a path pattern.
const IndexPlaceholder = "{i}"

var (
	// ErrNoFiles is returned when there is nothing to load.
	ErrNoFiles = errors.New("no input files")
	// ErrEmptySample is returned when the loaded files contain no values.
	ErrEmptySample = errors.New("input files contain no values")
	// ErrPatternIndex is returned when a pattern cannot address several files.
	ErrPatternIndex = errors.New("pattern has no " + IndexPlaceholder + " placeholder")
)

// ParseError reports a token that is not a number.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid number %q", e.Line, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Paths expands pattern for indices start through start+count-1.
func Paths(pattern string, start, count int) ([]string, error) {
	if count <= 0 {
		return nil, ErrNoFiles
	}
	if !strings.Contains(pattern, IndexPlaceholder) {
		if count > 1 {
			return nil, fmt.Errorf("%w: %q with count %d", ErrPatternIndex, pattern, count)
		}
		return []string{pattern}, nil
	}

	paths := make([]string, count)
	for i := range paths {
		paths[i] = strings.ReplaceAll(pattern, IndexPlaceholder, strconv.Itoa(start+i))
	}
	return paths, nil
}

// Parse reads every number from r in order.
func Parse(r io.Reader) ([]float64, error) {
	var values []float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		for _, tok := range bytes.Fields(text) {
			v, err := strconv.ParseFloat(string(tok), 64)
			if err != nil {
				return nil, &ParseError{Line: line, Token: string(tok), Err: err}
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// ParseFile parses the file at path. Errors name the file.
func ParseFile(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseData(path, data)
}

func parseData(path string, data []byte) ([]float64, error) {
	values, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// Source records how many values one file contributed.
type Source struct {
	Path   string `json:"path"`
	Count  int    `json:"count"`
	Cached bool   `json:"cached,omitempty"`
}

// Set is the concatenation of every loaded file, in load order.
type Set struct {
	Values  []float64 `json:"-"`
	Sources []Source  `json:"sources"`
}

// Len returns the number of values.
func (s *Set) Len() int {
	return len(s.Values)
}

// Concat joins per-file values in order.
func Concat(paths []string, perFile [][]float64) *Set {
	total := 0
	for _, vs := range perFile {
		total += len(vs)
	}

	set := &Set{
		Values:  make([]float64, 0, total),
		Sources: make([]Source, len(perFile)),
	}
	for i, vs := range perFile {
		set.Values = append(set.Values, vs...)
		set.Sources[i] = Source{Path: paths[i], Count: len(vs)}
	}
	return set
}
