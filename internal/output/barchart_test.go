package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarLen(t *testing.T) {
	tests := []struct {
		name        string
		v, peak     float64
		width, want int
	}{
		{"peak fills width", 10, 10, 40, 40},
		{"half", 5, 10, 40, 20},
		{"tiny still visible", 0.01, 10, 40, 1},
		{"zero", 0, 10, 40, 0},
		{"no peak", 3, 0, 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, barLen(tt.v, tt.peak, tt.width))
		})
	}
}

func TestBarChartRenderText(t *testing.T) {
	chart := &BarChart{
		Title:  "Histogram",
		Labels: []string{"[1, 10)", "[10, 100]"},
		Values: []float64{4, 2},
		Width:  8,
	}

	var buf bytes.Buffer
	require.NoError(t, chart.RenderText(&buf, false))

	lines := strings.Split(buf.String(), "\n")
	var bars []string
	for _, l := range lines {
		if strings.Contains(l, "│") {
			bars = append(bars, l)
		}
	}
	require.Len(t, bars, 2)
	assert.Contains(t, bars[0], strings.Repeat(barRune, 8)+" 4")
	assert.Contains(t, bars[1], strings.Repeat(barRune, 4)+" 2")
	// Labels are right-aligned to the same column.
	assert.Equal(t, strings.Index(bars[0], "│"), strings.Index(bars[1], "│"))
}

func TestBarChartRenderMarkdown(t *testing.T) {
	chart := &BarChart{Labels: []string{"a"}, Values: []float64{1.5}}

	var buf bytes.Buffer
	require.NoError(t, chart.RenderMarkdown(&buf))
	assert.Contains(t, buf.String(), "| a | 1.5 |")
}

func TestBarChartRenderData(t *testing.T) {
	chart := &BarChart{Labels: []string{"a", "b"}, Values: []float64{1}}
	rows, ok := chart.RenderData().([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.0, rows[1]["value"])

	chart.Data = "override"
	assert.Equal(t, "override", chart.RenderData())
}
