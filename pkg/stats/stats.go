// Package stats provides summary statistics over a sample set.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a statistic is requested over no values.
var ErrEmpty = errors.New("empty sample")

// Summary holds full-pass reductions over a sample set.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // population (divisor N)
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// Line renders the one-line console form, e.g. "Mean : 2.00e+00 	 Sigma : 8.16e-01".
func (s Summary) Line() string {
	return fmt.Sprintf("Mean : %.2e \t Sigma : %.2e", s.Mean, s.StdDev)
}

// Mean returns the arithmetic mean.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	return stat.Mean(values, nil), nil
}

// StdDev returns the population standard deviation (divisor N, not N-1).
func StdDev(values []float64) (float64, error) {
	_, std, err := MeanStdDev(values)
	return std, err
}

// MeanStdDev returns the arithmetic mean and population standard deviation.
func MeanStdDev(values []float64) (mean, std float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrEmpty
	}
	mean, std = stat.PopMeanStdDev(values, nil)
	return mean, std, nil
}

// Summarize computes a Summary. The input slice is not modified.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmpty
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P05:    stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}, nil
}

// RankPoint is one sample value at its 1-based position in sorted order.
type RankPoint struct {
	Rank  int     `json:"rank"`
	Value float64 `json:"value"`
}

// Rank sorts a copy of values and pairs each with its rank. NaN values are
// dropped since they have no position in the order.
func Rank(values []float64, descending bool) []RankPoint {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	} else {
		sort.Float64s(sorted)
	}

	points := make([]RankPoint, len(sorted))
	for i, v := range sorted {
		points[i] = RankPoint{Rank: i + 1, Value: v}
	}
	return points
}
