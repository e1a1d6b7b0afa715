// Package render formats allocations for people and machines.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"it10bb/internal/core"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"

	labelWidth = 45
	title      = "IT-10BB Rough Expense Breakdown"
)

var ErrUnknownFormat = errors.New("unknown output format")

type (
	// Report is the wire shape of an allocation.
	Report struct {
		Total        int64        `json:"total" yaml:"total"`
		Lines        []ReportLine `json:"lines" yaml:"lines"`
		PercentTotal int          `json:"percent_total" yaml:"percent_total"`
		ExportedRef  string       `json:"exported_ref,omitempty" yaml:"exported_ref,omitempty"`
	}

	ReportLine struct {
		Key     string `json:"key" yaml:"key"`
		Label   string `json:"label" yaml:"label"`
		Percent int    `json:"percent" yaml:"percent"`
		Amount  int64  `json:"amount" yaml:"amount"`
	}
)

// NewReport converts an allocation into its wire shape.
func NewReport(a core.Allocation) Report {
	lines := a.Lines()
	r := Report{
		Total:        a.Total,
		Lines:        make([]ReportLine, len(lines)),
		PercentTotal: a.PercentTotal(),
	}
	for i, l := range lines {
		r.Lines[i] = ReportLine{
			Key:     l.Category.Key(),
			Label:   l.Category.Label(),
			Percent: l.Percent,
			Amount:  l.Amount,
		}
	}
	return r
}

// ValidFormat reports whether format is one Write understands.
func ValidFormat(format string) bool {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Write renders r to w in the requested format.
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case FormatTable, "":
		return Table(w, r)
	case FormatJSON, FormatYAML:
		return Encode(w, format, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Table writes the console breakdown with a trailing TOTAL row.
func Table(w io.Writer, r Report) error {
	rule := strings.Repeat("=", 7)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s %s\n", rule, title, rule)
	for _, l := range r.Lines {
		fmt.Fprintln(&b, row(l.Label, l.Percent, l.Amount))
	}
	fmt.Fprintln(&b, strings.Repeat("-", 48))
	fmt.Fprintln(&b, row("TOTAL", r.PercentTotal, r.Total))
	fmt.Fprintln(&b, strings.Repeat("=", 48))

	_, err := io.WriteString(w, b.String())
	return err
}

func row(label string, pct int, amount int64) string {
	return fmt.Sprintf("%-*s : %3d%% | Tk %s", labelWidth, label, pct, humanize.Comma(amount))
}

// Categories writes the category table with base weights.
func Categories(w io.Writer, format string) error {
	type entry struct {
		Key        string  `json:"key" yaml:"key"`
		Label      string  `json:"label" yaml:"label"`
		BaseWeight float64 `json:"base_weight" yaml:"base_weight"`
	}

	cats := core.Categories()
	entries := make([]entry, len(cats))
	for i, c := range cats {
		entries[i] = entry{Key: c.Key(), Label: c.Label(), BaseWeight: c.BaseWeight()}
	}

	if format != FormatTable && format != "" {
		return Encode(w, format, entries)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%-14s %-*s %5.1f\n", e.Key, labelWidth, e.Label, e.BaseWeight); err != nil {
			return err
		}
	}
	return nil
}
