package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/csheth/askdb/internal/ask"
)

// Format selects a text emitter.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported output format.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat accepts a format name, with "md" as an alias for markdown.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "md" {
		return FormatMarkdown, nil
	}
	if lo.Contains(Formats, Format(name)) {
		return Format(name), nil
	}
	return "", fmt.Errorf("unknown output format %q (want one of %s)", name, strings.Join(lo.Map(Formats, func(f Format, _ int) string { return string(f) }), ", "))
}

// Options tune Write.
type Options struct {
	Format Format
	// Plain selects an ASCII table style, used when output is not a terminal.
	Plain bool
}

// Write emits a display in the requested format.
func Write(w io.Writer, d Display, opts Options) error {
	if d.Busy {
		_, err := fmt.Fprintln(w, BusyMessage)
		return err
	}
	if d.Result == nil {
		return nil
	}
	view := *d.Result
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, view)
	case FormatCSV:
		return writeCSV(w, view)
	case FormatMarkdown:
		return writeMarkdown(w, view)
	case FormatTable, "":
		return writeText(w, view, opts.Plain)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

// TableString renders the grid with go-pretty, or the empty-state text.
func TableString(tbl Table, style table.Style) string {
	if tbl.Empty {
		return emptyText(tbl)
	}
	t := newTableWriter(tbl)
	t.SetStyle(style)
	return t.Render()
}

func emptyText(tbl Table) string {
	if tbl.Note != "" {
		return EmptyState + "\n" + tbl.Note
	}
	return EmptyState
}

func newTableWriter(tbl Table) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(toPrettyRow(tbl.Header))
	for _, row := range tbl.Rows {
		t.AppendRow(toPrettyRow(row))
	}
	return t
}

func toPrettyRow(cells []string) table.Row {
	return lo.Map(cells, func(c string, _ int) any { return c })
}

func writeText(w io.Writer, view ResultView, plain bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", AnswerTitle, view.Answer)
	if view.ShowSQL {
		fmt.Fprintf(&b, "\n%s\n%s\n", SQLTitle, view.SQL)
	}
	if view.ShowTable {
		style := table.StyleLight
		if plain {
			style = table.StyleDefault
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", DataTitle, TableString(view.Table, style))
		if !view.Table.Empty {
			fmt.Fprintf(&b, "(%d rows)\n", len(view.Table.Rows))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonView struct {
	Answer    string    `json:"answer"`
	SQL       *string   `json:"sql,omitempty"`
	Data      []ask.Row `json:"data,omitempty"`
	DataError string    `json:"data_error,omitempty"`
}

func writeJSON(w io.Writer, view ResultView) error {
	out := jsonView{Answer: view.Answer}
	if !view.Failed {
		sql := ""
		if view.HasSQL {
			sql = view.SQL
		}
		out.SQL = &sql
		out.Data = view.Rows
		if out.Data == nil {
			out.Data = []ask.Row{}
		}
		out.DataError = view.Table.Note
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeCSV emits only the grid. A failure or an empty result writes nothing.
func writeCSV(w io.Writer, view ResultView) error {
	if !view.ShowTable || view.Table.Empty {
		return nil
	}
	_, err := fmt.Fprintln(w, newTableWriter(view.Table).RenderCSV())
	return err
}

func writeMarkdown(w io.Writer, view ResultView) error {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n%s\n", AnswerTitle, view.Answer)
	if view.ShowSQL {
		fmt.Fprintf(&b, "\n### %s\n\n```sql\n%s\n```\n", SQLTitle, view.SQL)
	}
	if view.ShowTable {
		fmt.Fprintf(&b, "\n### %s\n\n", DataTitle)
		if view.Table.Empty {
			fmt.Fprintf(&b, "_%s_\n", EmptyState)
			if view.Table.Note != "" {
				fmt.Fprintf(&b, "\n%s\n", view.Table.Note)
			}
		} else {
			fmt.Fprintf(&b, "%s\n", newTableWriter(view.Table).RenderMarkdown())
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
