package analysis

import (
	"fmt"
	"strconv"

	"github.com/MaxVarverakis/TKN-Physarum/internal/output"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/binning"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/sample"
	"github.com/MaxVarverakis/TKN-Physarum/pkg/stats"
)

func sci(v float64) string {
	return fmt.Sprintf("%.4e", v)
}

func summaryTable(s stats.Summary) *output.Table {
	return output.NewTable(
		"Summary",
		[]string{"Statistic", "Value"},
		[][]string{
			{"Count", strconv.Itoa(s.Count)},
			{"Mean", sci(s.Mean)},
			{"Sigma", sci(s.StdDev)},
			{"Min", sci(s.Min)},
			{"Max", sci(s.Max)},
			{"Median", sci(s.Median)},
			{"P05", sci(s.P05)},
			{"P95", sci(s.P95)},
		},
		nil,
		s,
	)
}

func sourcesTable(sources []sample.Source) *output.Table {
	rows := make([][]string, len(sources))
	total := 0
	for i, src := range sources {
		cached := ""
		if src.Cached {
			cached = "yes"
		}
		rows[i] = []string{src.Path, strconv.Itoa(src.Count), cached}
		total += src.Count
	}
	return output.NewTable(
		"Sources",
		[]string{"File", "Values", "Cached"},
		rows,
		[]string{"Total", strconv.Itoa(total), ""},
		sources,
	)
}

// Report renders the summary line, the summary table and the sources.
func (r *StatsResult) Report() output.Renderable {
	return &output.Report{
		Title: "Sample statistics",
		Sections: []output.Renderable{
			&output.Note{Text: r.Summary.Line()},
			summaryTable(r.Summary),
			sourcesTable(r.Sources),
		},
		Data: r,
	}
}

// binLabel renders a bin as an interval; the last bin is closed.
func binLabel(b binning.Bin, last bool) string {
	closing := ")"
	if last {
		closing = "]"
	}
	return fmt.Sprintf("[%.3g, %.3g%s", b.Min, b.Max, closing)
}

// Report renders the summary, a terminal bar chart and the bin table.
func (r *HistogramResult) Report() output.Renderable {
	h := r.Histogram
	labels := make([]string, len(h.Bins))
	values := make([]float64, len(h.Bins))
	rows := make([][]string, len(h.Bins))
	for i, b := range h.Bins {
		labels[i] = binLabel(b, i == len(h.Bins)-1)
		values[i] = float64(b.Count)
		if r.Density {
			values[i] = b.Density
		}
		rows[i] = []string{labels[i], strconv.Itoa(b.Count), sci(b.Density)}
	}

	binsTitle := fmt.Sprintf("Bins (%s, %d)", h.Spacing, len(h.Bins))
	sections := []output.Renderable{
		&output.Note{Text: r.Summary.Line()},
		summaryTable(r.Summary),
		sourcesTable(r.Sources),
		&output.BarChart{Title: "Distribution", Labels: labels, Values: values},
		output.NewTable(binsTitle, []string{"Bin", "Count", "Density"}, rows,
			[]string{"Outside", strconv.Itoa(h.Outside), ""}, h),
	}

	if r.Masked > 0 {
		sections = append(sections, &output.Note{
			Text: fmt.Sprintf("%d values in bins at or below zero not drawn on the log-scaled plot", r.Masked),
		})
	}

	return &output.Report{
		Title:    "Histogram",
		Sections: sections,
		Data:     r,
	}
}

// Report renders the summary and the leading rank points.
func (r *RankResult) Report() output.Renderable {
	rows := make([][]string, len(r.Top))
	for i, p := range r.Top {
		rows[i] = []string{strconv.Itoa(p.Rank), sci(p.Value)}
	}

	order := "ascending"
	if r.Descending {
		order = "descending"
	}
	title := fmt.Sprintf("Top %d of %d (%s)", len(r.Top), len(r.Points), order)

	sections := []output.Renderable{
		&output.Note{Text: r.Summary.Line()},
		summaryTable(r.Summary),
		sourcesTable(r.Sources),
		output.NewTable(title, []string{"Rank", "Value"}, rows, nil, r.Top),
	}
	if r.Omitted > 0 {
		sections = append(sections, &output.Note{
			Text: fmt.Sprintf("%d values not drawn on the log-scaled plot", r.Omitted),
		})
	}

	return &output.Report{
		Title:    "Rank order",
		Sections: sections,
		Data:     r,
	}
}
