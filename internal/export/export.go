// Package export writes settled answers to disk as JSON or CSV.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/render"
)

// ErrNotExportable is returned for anything other than a successful answer.
var ErrNotExportable = errors.New("only a successful answer can be exported")

// Entry is one exported answer.
type Entry struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	SQL        string    `json:"sql"`
	Data       []ask.Row `json:"data"`
	DataError  string    `json:"dataError,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
}

// FromResult builds an entry from a settled result.
func FromResult(question string, result ask.Result, capturedAt time.Time) (Entry, error) {
	success, ok := result.(ask.Success)
	if !ok {
		return Entry{}, ErrNotExportable
	}
	data := success.Data
	if data == nil {
		data = []ask.Row{}
	}
	return Entry{
		Question:   question,
		Answer:     success.Answer,
		SQL:        success.SQL,
		Data:       data,
		DataError:  success.DataError,
		CapturedAt: capturedAt,
	}, nil
}

// DefaultPath names an export file inside dir after its capture time.
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("askdb-%s.json", now.Format("20060102-150405")))
}

// Save writes the entry, creating parent directories. Paths ending in .csv get
// the result grid only; anything else gets the full entry as JSON.
func Save(path string, entry Entry) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("export path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		data = []byte(csvBody(entry.Data))
	} else {
		raw, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return err
		}
		data = append(raw, '\n')
	}
	return os.WriteFile(path, data, 0o644)
}

func csvBody(rows []ask.Row) string {
	tbl := render.BuildTable(rows)
	if tbl.Empty {
		return ""
	}
	t := table.NewWriter()
	t.AppendHeader(lo.Map(tbl.Header, func(h string, _ int) any { return h }))
	for _, row := range tbl.Rows {
		t.AppendRow(lo.Map(row, func(c string, _ int) any { return c }))
	}
	return t.RenderCSV() + "\n"
}
