package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Structured reports whether the format is meant for machines.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatTOON
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the value encoded for JSON and TOON.
	RenderData() any
}

// Formatter writes results in one format. Status lines (Success, Warning) go
// to a separate writer so a redirected or structured result stays clean.
type Formatter struct {
	format  Format
	writer  io.Writer
	status  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter writes results to stdout, or to the output file when set.
// Status lines always go to stderr.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	f := &Formatter{
		format:  format,
		writer:  os.Stdout,
		status:  os.Stderr,
		colored: colored,
	}
	if output == "" {
		return f, nil
	}

	file, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	f.writer = file
	f.file = file
	f.colored = false
	return f, nil
}

// NewWriterFormatter writes results and status lines to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, status: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Output writes data in the configured format. Values that are not
// Renderable are encoded; markdown wraps them in a json fence.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.encode(data, f.format == FormatMarkdown)
	}

	switch f.format {
	case FormatJSON, FormatTOON:
		return f.encode(r.RenderData(), false)
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) encode(data any, fenced bool) error {
	if f.format == FormatTOON {
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.writer, string(out))
		return err
	}

	if fenced {
		fmt.Fprintln(f.writer, "```json")
	}
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return err
	}
	if fenced {
		fmt.Fprintln(f.writer, "```")
	}
	return nil
}

// Success prints a green status line.
func (f *Formatter) Success(format string, args ...any) {
	f.statusLine(color.FgGreen, "", format, args...)
}

// Warning prints a yellow status line, prefixed when color is off.
func (f *Formatter) Warning(format string, args ...any) {
	f.statusLine(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) statusLine(attr color.Attribute, plainPrefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if f.colored && !color.NoColor {
		fmt.Fprintln(f.status, color.New(attr).Sprint(msg))
		return
	}
	fmt.Fprintln(f.status, plainPrefix+msg)
}

// Table is a Renderable table with headers, rows, and optional footer.
type Table struct {
	Title   string     `json:"-"`
	Headers []string   `json:"-"`
	Rows    [][]string `json:"-"`
	Footer  []string   `json:"-"`
	Data    any        `json:"data,omitempty"`
}

// NewTable creates a table that serializes as data when data is non-nil.
func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    rows,
		Footer:  footer,
		Data:    data,
	}
}

// RenderData falls back to one header-keyed map per row.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for j := 0; j < len(t.Headers) && j < len(row); j++ {
			rec[t.Headers[j]] = row[j]
		}
		records = append(records, rec)
	}
	return records
}

var leftAligned = tw.CellAlignment{Global: tw.AlignLeft}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	writeTitle(w, t.Title, colored, "=")

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  leftAligned,
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row:    tw.CellConfig{Alignment: leftAligned},
			Footer: tw.CellConfig{Alignment: leftAligned},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)

	table.Header(t.Headers)
	if err := table.Bulk(t.Rows); err != nil {
		return err
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, cell := range t.Footer {
			footer[i] = cell
		}
		table.Footer(footer...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	rule := make([]string, len(t.Headers))
	for i := range rule {
		rule[i] = "---"
	}
	markdownRow(w, t.Headers)
	markdownRow(w, rule)
	for _, row := range t.Rows {
		markdownRow(w, row)
	}
	if len(t.Footer) > 0 {
		markdownRow(w, t.Footer)
	}

	fmt.Fprintln(w)
	return nil
}

func markdownRow(w io.Writer, cells []string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

// Note is a Renderable line of free text, such as the console summary line.
type Note struct {
	Text string `json:"text"`
	Data any    `json:"-"`
}

func (n *Note) RenderData() any {
	if n.Data != nil {
		return n.Data
	}
	return n.Text
}

func (n *Note) RenderText(w io.Writer, _ bool) error {
	_, err := fmt.Fprintln(w, n.Text)
	return err
}

func (n *Note) RenderMarkdown(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n\n", n.Text)
	return err
}

// Report is a compound Renderable of titled parts.
type Report struct {
	Title    string       `json:"title,omitempty"`
	Sections []Renderable `json:"-"`
	Data     any          `json:"data,omitempty"`
}

func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make([]any, 0, len(r.Sections))
	for _, s := range r.Sections {
		parts = append(parts, s.RenderData())
	}
	return map[string]any{"title": r.Title, "sections": parts}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		if colored {
			color.New(color.Bold, color.FgCyan).Fprintln(w, r.Title)
		} else {
			fmt.Fprintln(w, r.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len([]rune(r.Title))))
		fmt.Fprintln(w)
	}

	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

func writeTitle(w io.Writer, title string, colored bool, underline string) {
	if title == "" {
		return
	}
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len([]rune(title))))
	fmt.Fprintln(w)
}
