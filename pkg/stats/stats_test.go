package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeClosedForm(t *testing.T) {
	s, err := Summarize([]float64{1.0, 2.0, 3.0})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.StdDev, 1e-12)
	assert.InDelta(t, 0.8165, s.StdDev, 1e-4)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 2.0, s.Median)
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	_, err := Summarize(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, _, err = MeanStdDev([]float64{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mean, err := Mean(values)
	require.NoError(t, err)
	assert.Equal(t, 5.0, mean)

	std, err := StdDev(values)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, std, 1e-12)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = StdDev(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSummarizeSingleValue(t *testing.T) {
	s, err := Summarize([]float64{7.5})
	require.NoError(t, err)
	assert.Equal(t, 7.5, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 7.5, s.Min)
	assert.Equal(t, 7.5, s.Max)
}

func TestMeanStdDevPopulation(t *testing.T) {
	mean, std, err := MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)
}

func TestSummaryLine(t *testing.T) {
	s := Summary{Mean: 2.0, StdDev: 0.816496580927726}
	assert.Equal(t, "Mean : 2.00e+00 \t Sigma : 8.16e-01", s.Line())
}

func TestRank(t *testing.T) {
	values := []float64{3, 1, math.NaN(), 2}

	asc := Rank(values, false)
	require.Len(t, asc, 3)
	assert.Equal(t, RankPoint{Rank: 1, Value: 1}, asc[0])
	assert.Equal(t, RankPoint{Rank: 3, Value: 3}, asc[2])

	desc := Rank(values, true)
	require.Len(t, desc, 3)
	assert.Equal(t, RankPoint{Rank: 1, Value: 3}, desc[0])
	assert.Equal(t, RankPoint{Rank: 3, Value: 1}, desc[2])

	assert.Equal(t, 3.0, values[0], "input must not be sorted in place")
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, true))
}
