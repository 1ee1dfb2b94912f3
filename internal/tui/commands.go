package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/askdb/internal/export"
	"github.com/csheth/askdb/internal/session"
)

// askJob runs one ticket. The ticket carries its own context, so the job
// context is not used; cancellation comes from the lifecycle.
func askJob(lifecycle *session.Lifecycle, ticket session.Ticket) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		outcome := lifecycle.Run(ticket)
		return submissionResultMsg{outcome: outcome}, outcome.Err
	}
}

func exportJob(path string, entry export.Entry) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := export.Save(path, entry); err != nil {
			return exportResultMsg{path: path, err: err}, err
		}
		return exportResultMsg{path: path}, nil
	}
}
