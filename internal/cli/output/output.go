// Package output renders command results as styled text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/rustle/internal/config"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Code    lipgloss.Style
}

// NewStyles builds the styles for a lipgloss renderer.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Code:    lr.NewStyle().PaddingLeft(2),
	}
}

// Renderer writes command output in the configured format.
type Renderer struct {
	w         io.Writer
	errW      io.Writer
	format    config.OutputFormat
	styles    *Styles
	errStyles *Styles
}

// NewRenderer creates a renderer. Color is enabled per writer when it is a
// terminal.
func NewRenderer(w, errW io.Writer, format config.OutputFormat) *Renderer {
	if format == "" {
		format = config.DefaultOutput
	}
	if w == nil {
		w = io.Discard
	}
	if errW == nil {
		errW = io.Discard
	}
	return &Renderer{
		w:         w,
		errW:      errW,
		format:    format,
		styles:    NewStyles(lipgloss.NewRenderer(w)),
		errStyles: NewStyles(lipgloss.NewRenderer(errW)),
	}
}

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.w }

// Format returns the output format.
func (r *Renderer) Format() config.OutputFormat { return r.format }

// Styles returns the styles for standard output.
func (r *Renderer) Styles() *Styles { return r.styles }

// Structured reports whether output is machine readable.
func (r *Renderer) Structured() bool {
	return r.format == config.OutputJSON || r.format == config.OutputYAML
}

// Encode writes v as YAML in yaml mode and as indented JSON otherwise.
func (r *Renderer) Encode(v any) error {
	if r.format == config.OutputYAML {
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.w, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.w, format, a...)
}

// Header writes a styled section title.
func (r *Renderer) Header(title string) {
	r.Println(r.styles.Header.Render(title))
}

// Warn writes a styled warning to standard error.
func (r *Renderer) Warn(msg string) {
	_, _ = fmt.Fprintln(r.errW, r.errStyles.Warning.Render("warning: "+msg))
}

// Table writes rows as a table.
func (r *Renderer) Table(header table.Row, rows []table.Row, footer table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	if footer != nil {
		t.AppendFooter(footer)
	}
	t.Render()
}
