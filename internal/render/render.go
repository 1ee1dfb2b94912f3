// Package render maps a session state to what the user sees. Render is pure:
// the same state always yields the same Display.
package render

import (
	"github.com/samber/lo"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/session"
)

const (
	AnswerTitle = "AI Answer"
	SQLTitle    = "Generated SQL"
	DataTitle   = "Data Results"

	EmptyState  = "No data found for this query."
	NoSQL       = "No SQL generated."
	BusyMessage = "Asking..."
)

// Display is everything a front end needs to draw one frame of results.
type Display struct {
	// Busy is set while the latest submission is in flight.
	Busy bool
	// Result is nil when nothing should be shown (idle or loading).
	Result *ResultView
}

// ResultView is a settled result prepared for display.
type ResultView struct {
	Answer string
	Failed bool

	ShowSQL bool
	// SQL is the display text; HasSQL reports whether the service sent any.
	SQL    string
	HasSQL bool

	ShowTable bool
	Table     Table
	// Rows keeps the decoded rows for structured emitters.
	Rows []ask.Row
}

// Table is the normalized grid. Header comes from the first row only; every
// body row holds its own values in order, so rows with other keys misalign.
type Table struct {
	Header []string
	Rows   [][]string
	// Empty means the empty-state text replaces the grid.
	Empty bool
	// Note carries a data error reported by the service.
	Note string
}

// Render is the renderer's only entry point.
func Render(s session.State) Display {
	switch s.Phase {
	case session.PhaseLoading:
		return Display{Busy: true}
	case session.PhaseSettled:
		result, ok := s.Settled()
		if !ok {
			return Display{}
		}
		view := View(result)
		return Display{Result: &view}
	default:
		return Display{}
	}
}

// View prepares a single result.
func View(result ask.Result) ResultView {
	switch r := result.(type) {
	case ask.Success:
		sql := r.SQL
		if sql == "" {
			sql = NoSQL
		}
		tbl := BuildTable(r.Data)
		tbl.Note = r.DataError
		return ResultView{
			Answer:    r.Answer,
			ShowSQL:   true,
			SQL:       sql,
			HasSQL:    r.SQL != "",
			ShowTable: true,
			Table:     tbl,
			Rows:      r.Data,
		}
	case ask.Failure:
		return ResultView{Answer: r.Answer, Failed: true}
	default:
		return ResultView{Answer: ask.FallbackMessage, Failed: true}
	}
}

// BuildTable normalizes rows into header and string cells.
func BuildTable(rows []ask.Row) Table {
	if len(rows) == 0 {
		return Table{Empty: true}
	}
	return Table{
		Header: lo.Map(rows[0].Columns, func(col string, _ int) string { return col }),
		Rows: lo.Map(rows, func(row ask.Row, _ int) []string {
			return lo.Map(row.Values, func(v any, _ int) string { return ask.FormatValue(v) })
		}),
	}
}
