package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/export"
	"github.com/csheth/askdb/internal/render"
	"github.com/csheth/askdb/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Client           ask.Client
	CancelSuperseded bool
	ExportDir        string
	Logger           *slog.Logger
	// Context parents every request; cancelling it aborts in-flight asks.
	Context context.Context
	Now     func() time.Time
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.ExportDir == "" {
		config.ExportDir = "."
	}

	layout := newPageLayout()

	input := textarea.New()
	input.Placeholder = inputPlaceholder
	input.ShowLineNumbers = false
	input.CharLimit = inputCharLimit
	input.SetWidth(layout.contentWidth - 4)
	input.SetHeight(layout.inputHeight)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(layout.contentWidth, layout.resultsHeight)
	vp.MouseWheelEnabled = true

	return &model{
		config: config,
		logger: logger,
		lifecycle: session.New(config.Client, session.Options{
			CancelSuperseded: config.CancelSuperseded,
			Logger:           logger,
		}),
		jobs:        newJobBus(config.Context, logger),
		layout:      layout,
		input:       input,
		spinner:     spin,
		viewport:    vp,
		focus:       focusInput,
		running:     map[string]jobSnapshot{},
		infoMessage: "Type a question and press Ctrl+Enter, or Tab to the Ask button.",
	}
}

type model struct {
	config    Config
	logger    *slog.Logger
	lifecycle *session.Lifecycle
	jobs      *jobBus
	layout    pageLayout

	input    textarea.Model
	spinner  spinner.Model
	viewport viewport.Model
	focus    focusTarget

	lastTicket      session.Ticket
	settledQuestion string
	lastAsk         *jobSnapshot
	running         map[string]jobSnapshot
	exporting       bool

	infoMessage  string
	errorMessage string
	helpVisible  bool
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.running[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.running, msg.Snapshot.ID)
		return m.handleJobResult(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.helpVisible = !m.helpVisible
		return m, nil
	case key.Matches(msg, keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, keys.NextFocus), key.Matches(msg, keys.PrevFocus):
		if m.focus == focusInput {
			return m, m.setFocus(focusButton)
		}
		return m, m.setFocus(focusInput)
	}

	if m.focus == focusButton {
		switch {
		case key.Matches(msg, keys.Press):
			return m, m.submit()
		case key.Matches(msg, keys.FocusInput):
			return m, m.setFocus(focusInput)
		}
		return m, nil
	}

	if key.Matches(msg, keys.Submit) {
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) setFocus(target focusTarget) tea.Cmd {
	m.focus = target
	if target == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// submit dispatches the current question. Blank input is ignored and the
// text is left as it is either way.
func (m *model) submit() tea.Cmd {
	question, ok := session.Normalize(m.input.Value())
	if !ok {
		return nil
	}
	wasBusy := m.busy()
	ticket := m.lifecycle.Begin(m.config.Context, question)
	m.lastTicket = ticket
	m.errorMessage = ""
	m.infoMessage = ""
	cmds := []tea.Cmd{m.jobs.Start(jobKindAsk, askJob(m.lifecycle, ticket))}
	if !wasBusy {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *model) exportCmd() tea.Cmd {
	state := m.lifecycle.State()
	if state.Loading() {
		m.infoMessage = "Wait for the current answer before exporting."
		return nil
	}
	result, ok := state.Settled()
	if !ok {
		m.infoMessage = "Nothing to export yet."
		return nil
	}
	now := m.config.Now()
	entry, err := export.FromResult(m.settledQuestion, result, now)
	if errors.Is(err, export.ErrNotExportable) {
		m.infoMessage = "Only successful answers can be exported."
		return nil
	}
	if m.exporting {
		m.infoMessage = "An export is already running."
		return nil
	}
	wasBusy := m.busy()
	m.exporting = true
	path := export.DefaultPath(m.config.ExportDir, now)
	m.infoMessage = fmt.Sprintf("Exporting to %s…", path)
	cmds := []tea.Cmd{m.jobs.Start(jobKindExport, exportJob(path, entry))}
	if !wasBusy {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *model) handleJobResult(msg jobResultEnvelope) (tea.Model, tea.Cmd) {
	switch payload := msg.Payload.(type) {
	case submissionResultMsg:
		outcome := payload.outcome
		if !m.lifecycle.Settle(outcome.Ticket.ID, outcome.Result) {
			return m, nil
		}
		snapshot := msg.Snapshot
		m.lastAsk = &snapshot
		m.settledQuestion = outcome.Ticket.Question
		m.refreshResults()
		if _, failed := outcome.Result.(ask.Failure); failed {
			m.infoMessage = ""
		} else {
			m.infoMessage = "Answer ready. Ctrl+S exports it."
		}
		return m, nil
	case exportResultMsg:
		m.exporting = false
		if payload.err != nil {
			m.logger.Warn("export failed", "path", payload.path, "err", payload.err)
			m.errorMessage = fmt.Sprintf("Export failed: %v", payload.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Exported to %s", payload.path)
		return m, nil
	}
	return m, nil
}

func (m *model) busy() bool {
	return m.lifecycle.State().Loading() || m.exporting
}

func (m *model) interaction() interaction {
	return interaction{focus: m.focus, busy: m.lifecycle.State().Loading()}
}

func (m *model) resize(width, height int) {
	m.layout.Update(width, height)
	m.input.SetWidth(m.layout.contentWidth - 4)
	m.input.SetHeight(m.layout.inputHeight)
	m.viewport.Width = m.layout.contentWidth
	m.viewport.Height = m.layout.resultsHeight
	m.refreshResults()
}

func (m *model) refreshResults() {
	display := render.Render(m.lifecycle.State())
	if display.Result == nil {
		return
	}
	m.viewport.SetContent(m.buildResultContent(*display.Result))
	m.viewport.GotoTop()
}
