// Package binning builds histogram bin edges and counts samples into them.
package binning

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

var (
	// ErrBinCount is returned for a bin count below one.
	ErrBinCount = errors.New("bin count must be at least 1")
	// ErrDegenerateRange is returned when edges cannot span a usable range.
	ErrDegenerateRange = errors.New("degenerate bin range")
	// ErrEmpty is returned when binning an empty sample.
	ErrEmpty = errors.New("no values to bin")
)

// relativePad widens a zero-width range of large magnitude, keeping bins
// wider than the float spacing at that value.
const relativePad = 5e-7

// Spacing selects how edges are distributed between the range bounds.
type Spacing string

const (
	Linear Spacing = "linear"
	Log    Spacing = "log"
)

// ParseSpacing converts a string to Spacing.
func ParseSpacing(s string) (Spacing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "lin":
		return Linear, nil
	case "log", "logarithmic", "geometric":
		return Log, nil
	default:
		return "", fmt.Errorf("unknown spacing %q (want linear or log)", s)
	}
}

// Bin is one histogram bucket. Min is inclusive; Max is exclusive except for
// the last bin of a histogram.
type Bin struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// Width returns Max - Min.
func (b Bin) Width() float64 {
	return b.Max - b.Min
}

// Histogram is a set of counted bins over strictly increasing edges.
type Histogram struct {
	Spacing Spacing   `json:"spacing"`
	Edges   []float64 `json:"edges"`
	Bins    []Bin     `json:"bins"`
	Total   int       `json:"total"`   // values counted into a bin
	Outside int       `json:"outside"` // values below, above, or NaN
}

// MaxCount returns the largest bin count.
func (h Histogram) MaxCount() int {
	m := 0
	for _, b := range h.Bins {
		if b.Count > m {
			m = b.Count
		}
	}
	return m
}

// LinearEdges returns bins+1 equally spaced edges from lo to hi. A zero-width
// range is widened to [lo-0.5, hi+0.5], or by a relative pad when 0.5 would
// vanish at that magnitude.
func LinearEdges(lo, hi float64, bins int) ([]float64, error) {
	if bins < 1 {
		return nil, ErrBinCount
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: bounds [%g, %g] are not finite", ErrDegenerateRange, lo, hi)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		v := lo
		pad := math.Max(0.5, math.Abs(v)*relativePad)
		lo, hi = v-pad, v+pad
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil, fmt.Errorf("%w: cannot widen %g", ErrDegenerateRange, v)
		}
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	edges[0], edges[bins] = lo, hi
	return edges, nil
}

// LogEdges drops non-positive edges and returns as many geometrically spaced
// edges between the smallest and largest remaining edge.
func LogEdges(edges []float64) ([]float64, error) {
	positive := make([]float64, 0, len(edges))
	for _, e := range edges {
		if e > 0 && !math.IsInf(e, 0) {
			positive = append(positive, e)
		}
	}
	if len(positive) < 2 {
		return nil, fmt.Errorf("%w: %d positive edges, need at least 2", ErrDegenerateRange, len(positive))
	}

	lo, hi := floats.Min(positive), floats.Max(positive)
	if lo == hi {
		return nil, fmt.Errorf("%w: positive edges collapse to %g", ErrDegenerateRange, lo)
	}

	out := floats.LogSpan(make([]float64, len(positive)), lo, hi)
	// exp(log(x)) is not exact; keep the extremes inside the range.
	out[0], out[len(out)-1] = lo, hi
	return out, nil
}

// Edges derives bin edges from the observed range of values. Log spacing
// takes the linear edges over [min, max] and respaces the positive ones.
func Edges(values []float64, bins int, spacing Spacing) ([]float64, error) {
	if bins < 1 {
		return nil, ErrBinCount
	}
	lo, hi, ok := finiteRange(values)
	if !ok {
		return nil, ErrEmpty
	}

	edges, err := LinearEdges(lo, hi, bins)
	if err != nil {
		return nil, err
	}
	if spacing == Log {
		return LogEdges(edges)
	}
	return edges, nil
}

// Count places values into the bins defined by edges. Bins are half-open
// except the last, which includes its upper edge.
func Count(values, edges []float64) (Histogram, error) {
	if len(edges) < 2 {
		return Histogram{}, fmt.Errorf("%w: %d edges", ErrDegenerateRange, len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Histogram{}, fmt.Errorf("%w: edges not strictly increasing at %d", ErrDegenerateRange, i)
		}
	}

	h := Histogram{
		Spacing: detectSpacing(edges),
		Edges:   edges,
		Bins:    make([]Bin, len(edges)-1),
	}
	for i := range h.Bins {
		h.Bins[i].Min = edges[i]
		h.Bins[i].Max = edges[i+1]
	}

	first, last := edges[0], edges[len(edges)-1]
	for _, v := range values {
		if math.IsNaN(v) || v < first || v > last {
			h.Outside++
			continue
		}
		i := sort.SearchFloat64s(edges, v) // first edge >= v
		if i == len(edges)-1 || edges[i] != v {
			i--
		}
		h.Bins[i].Count++
		h.Total++
	}

	if h.Total > 0 {
		for i := range h.Bins {
			h.Bins[i].Density = float64(h.Bins[i].Count) / (float64(h.Total) * h.Bins[i].Width())
		}
	}
	return h, nil
}

// Build computes edges for values and counts them.
func Build(values []float64, bins int, spacing Spacing) (Histogram, error) {
	edges, err := Edges(values, bins, spacing)
	if err != nil {
		return Histogram{}, err
	}
	h, err := Count(values, edges)
	if err != nil {
		return Histogram{}, err
	}
	h.Spacing = spacing
	return h, nil
}

func finiteRange(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

// detectSpacing guesses Log when consecutive edge ratios are constant and
// differences are not.
func detectSpacing(edges []float64) Spacing {
	if len(edges) < 3 || edges[0] <= 0 {
		return Linear
	}
	d0 := edges[1] - edges[0]
	r0 := edges[1] / edges[0]
	linear, geometric := true, true
	for i := 2; i < len(edges); i++ {
		if !scalar.EqualWithinRel(edges[i]-edges[i-1], d0, 1e-9) {
			linear = false
		}
		if !scalar.EqualWithinRel(edges[i]/edges[i-1], r0, 1e-9) {
			geometric = false
		}
	}
	if geometric && !linear {
		return Log
	}
	return Linear
}
