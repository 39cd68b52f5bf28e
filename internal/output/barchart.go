package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultBarWidth = 40
	barRune         = "█"
)

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

// BarChart is a Renderable horizontal bar chart for terminals.
type BarChart struct {
	Title  string
	Labels []string
	Values []float64
	Width  int // cells for the longest bar
	Data   any
}

func (b *BarChart) RenderData() any {
	if b.Data != nil {
		return b.Data
	}
	rows := make([]map[string]any, len(b.Labels))
	for i, l := range b.Labels {
		rows[i] = map[string]any{"label": l, "value": b.value(i)}
	}
	return rows
}

func (b *BarChart) value(i int) float64 {
	if i < len(b.Values) {
		return b.Values[i]
	}
	return 0
}

// barLen scales v against peak into [0, width] cells. Non-zero values always
// get at least one cell.
func barLen(v, peak float64, width int) int {
	if peak <= 0 || v <= 0 || math.IsNaN(v) {
		return 0
	}
	n := int(math.Round(v / peak * float64(width)))
	if n == 0 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

func (b *BarChart) RenderText(w io.Writer, colored bool) error {
	writeTitle(w, b.Title, colored, "=")

	width := b.Width
	if width <= 0 {
		width = defaultBarWidth
	}

	labelWidth := 0
	peak := 0.0
	for i, l := range b.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
		peak = max(peak, b.value(i))
	}

	for i, l := range b.Labels {
		v := b.value(i)
		bar := strings.Repeat(barRune, barLen(v, peak, width))
		if colored {
			bar = barStyle.Render(bar)
		}
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(l))
		fmt.Fprintf(w, "%s%s │%s %g\n", pad, l, bar, v)
	}
	fmt.Fprintln(w)
	return nil
}

func (b *BarChart) RenderMarkdown(w io.Writer) error {
	if b.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", b.Title)
	}
	fmt.Fprintln(w, "| Bin | Value |")
	fmt.Fprintln(w, "| --- | --- |")
	for i, l := range b.Labels {
		fmt.Fprintf(w, "| %s | %g |\n", l, b.value(i))
	}
	fmt.Fprintln(w)
	return nil
}
