package tui

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/askdb/internal/render"
)

type pageLayout struct {
	windowWidth   int
	windowHeight  int
	contentWidth  int
	inputHeight   int
	resultsHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		contentWidth:  80,
		inputHeight:   3,
		resultsHeight: 12,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.contentWidth = innerWidth
	l.inputHeight = 3
	if height >= 40 {
		l.inputHeight = 5
	}
	// header, input label and borders, button row, status bar, spacing
	const chrome = 10
	l.resultsHeight = height - chrome - l.inputHeight
	if l.resultsHeight < 6 {
		l.resultsHeight = 6
	}
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

// buildResultContent draws a settled result for the viewport.
func (m *model) buildResultContent(view render.ResultView) string {
	cb := &contentBuilder{}
	wrap := m.wrapWidth(2)

	cb.WriteString(sectionHeaderStyle.Render(render.AnswerTitle))
	cb.WriteRune('\n')
	answer := wordwrap.String(view.Answer, wrap)
	if view.Failed {
		cb.WriteString(errorStyle.Render(answer))
	} else {
		cb.WriteString(answer)
	}
	cb.WriteRune('\n')

	if view.ShowSQL {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render(render.SQLTitle))
		cb.WriteRune('\n')
		sql := view.SQL
		if view.HasSQL {
			sql = sqlStyle.Render(wordwrap.String(sql, wrap-4))
		} else {
			sql = helperStyle.Render(sql)
		}
		cb.WriteString(sqlBoxStyle.Render(sql))
		cb.WriteRune('\n')
	}

	if view.ShowTable {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render(render.DataTitle))
		cb.WriteRune('\n')
		if view.Table.Empty {
			cb.WriteString(helperStyle.Render(render.EmptyState))
			cb.WriteRune('\n')
			if view.Table.Note != "" {
				cb.WriteString(noteStyle.Render(wordwrap.String(view.Table.Note, wrap)))
				cb.WriteRune('\n')
			}
		} else {
			cb.WriteString(render.TableString(view.Table, table.StyleRounded))
			cb.WriteRune('\n')
			cb.WriteString(helperStyle.Render(rowCountLabel(len(view.Table.Rows))))
			cb.WriteRune('\n')
		}
	}
	return cb.String()
}

func rowCountLabel(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
