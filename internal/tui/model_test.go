package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/askdb/internal/ask"
	"github.com/csheth/askdb/internal/export"
	"github.com/csheth/askdb/internal/render"
	"github.com/csheth/askdb/internal/session"
)

const projectsBody = `{"answer":"3 projects found","sql":"SELECT * FROM projects","data":[{"id":1,"name":"Alpha"},{"id":2,"name":"Beta"}]}`

type fakeClient struct {
	mu        sync.Mutex
	questions []string
	respond   func(question string) (ask.Response, error)
}

func (f *fakeClient) Ask(ctx context.Context, question string) (ask.Response, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	return f.respond(question)
}

func (f *fakeClient) Endpoint() string { return "http://fake:10000" }

func (f *fakeClient) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.questions...)
}

func projectsClient(t *testing.T) *fakeClient {
	t.Helper()
	return &fakeClient{respond: func(string) (ask.Response, error) {
		return ask.DecodeResponse([]byte(projectsBody))
	}}
}

func newTestModel(t *testing.T, client ask.Client) *model {
	t.Helper()
	teaModel, ok := New(Config{Client: client, ExportDir: t.TempDir()}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	return teaModel
}

// finish runs the last dispatched ticket and feeds its result back through Update.
func finish(t *testing.T, m *model) {
	t.Helper()
	deliver(t, m, m.lastTicket)
}

func deliver(t *testing.T, m *model, ticket session.Ticket) {
	t.Helper()
	envelope := m.jobs.run(m.jobs.begin(jobKindAsk), askJob(m.lifecycle, ticket))
	m.Update(envelope)
}

func press(m *model, keyType tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: keyType})
	return cmd
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	client := projectsClient(t)
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		m := newTestModel(t, client)
		m.input.SetValue(text)

		if cmd := press(m, tea.KeyCtrlJ); cmd != nil {
			t.Fatalf("blank input %q should not dispatch, got %T", text, cmd)
		}
		press(m, tea.KeyTab)
		if cmd := press(m, tea.KeyEnter); cmd != nil {
			t.Fatalf("blank input %q should not dispatch via the button", text)
		}
		state := m.lifecycle.State()
		if state.Phase != session.PhaseIdle || state.Latest != 0 {
			t.Fatalf("state changed for blank input: %+v", state)
		}
	}
	if calls := client.calls(); len(calls) != 0 {
		t.Fatalf("client should not be called, got %v", calls)
	}
}

func TestCtrlJSubmitsTrimmedQuestionAndKeepsText(t *testing.T) {
	client := projectsClient(t)
	m := newTestModel(t, client)
	m.input.SetValue("  Show all projects  ")

	if cmd := press(m, tea.KeyCtrlJ); cmd == nil {
		t.Fatal("ctrl+j should dispatch a request")
	}
	if !m.lifecycle.State().Loading() {
		t.Fatal("state should be loading after dispatch")
	}
	if got := m.input.Value(); got != "  Show all projects  " {
		t.Fatalf("input text should not change on submit, got %q", got)
	}
	if m.lastTicket.Question != "Show all projects" {
		t.Fatalf("question should be trimmed, got %q", m.lastTicket.Question)
	}

	finish(t, m)
	if m.lifecycle.State().Loading() {
		t.Fatal("loading should clear once the answer arrives")
	}
	if calls := client.calls(); len(calls) != 1 || calls[0] != "Show all projects" {
		t.Fatalf("unexpected client calls: %v", calls)
	}
}

func TestEnterInInputInsertsNewline(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	m.input.SetValue("first line")
	if cmd := press(m, tea.KeyEnter); m.lifecycle.State().Latest != 0 {
		t.Fatalf("enter in the input should not submit (cmd=%T)", cmd)
	}
	if !strings.Contains(m.input.Value(), "\n") {
		t.Fatalf("enter should insert a newline, got %q", m.input.Value())
	}
}

func TestKeyboardAndButtonPathsMatch(t *testing.T) {
	viaKey := newTestModel(t, projectsClient(t))
	viaKey.input.SetValue("Show all projects")
	press(viaKey, tea.KeyCtrlJ)
	finish(t, viaKey)

	viaButton := newTestModel(t, projectsClient(t))
	viaButton.input.SetValue("Show all projects")
	press(viaButton, tea.KeyTab)
	if viaButton.focus != focusButton {
		t.Fatal("tab should move focus to the Ask button")
	}
	press(viaButton, tea.KeyEnter)
	finish(t, viaButton)

	keyState := viaKey.lifecycle.State()
	buttonState := viaButton.lifecycle.State()
	if keyState.Phase != buttonState.Phase || keyState.Latest != buttonState.Latest {
		t.Fatalf("states differ: %+v vs %+v", keyState, buttonState)
	}
	if viaKey.buildResultContent(*render.Render(keyState).Result) != viaButton.buildResultContent(*render.Render(buttonState).Result) {
		t.Fatal("rendered results differ between keyboard and button submission")
	}
}

func TestSettledSuccessRendersAllPanels(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	m.input.SetValue("Show all projects")
	press(m, tea.KeyCtrlJ)
	finish(t, m)

	view := m.View()
	for _, want := range []string{render.AnswerTitle, "3 projects found", render.SQLTitle, "SELECT * FROM projects", render.DataTitle, "id", "name", "Alpha", "Beta", "2 rows"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestEmptyDataShowsEmptyState(t *testing.T) {
	client := &fakeClient{respond: func(string) (ask.Response, error) {
		return ask.DecodeResponse([]byte(`{"answer":"nothing","sql":"SELECT 1 WHERE 0","data":[]}`))
	}}
	m := newTestModel(t, client)
	m.input.SetValue("q")
	press(m, tea.KeyCtrlJ)
	finish(t, m)

	if view := m.View(); !strings.Contains(view, render.EmptyState) {
		t.Fatalf("expected empty state in view:\n%s", view)
	}
}

func TestTransportFailureShowsOnlyAnswer(t *testing.T) {
	client := &fakeClient{respond: func(string) (ask.Response, error) {
		return ask.Response{}, errors.New("connection refused")
	}}
	m := newTestModel(t, client)
	m.input.SetValue("q")
	press(m, tea.KeyCtrlJ)
	finish(t, m)

	result, ok := m.lifecycle.State().Settled()
	if !ok {
		t.Fatal("state should be settled")
	}
	if result != (ask.Failure{Answer: "Backend error"}) {
		t.Fatalf("unexpected result %#v", result)
	}
	view := m.View()
	if !strings.Contains(view, "Backend error") {
		t.Fatalf("expected fallback message in view:\n%s", view)
	}
	if strings.Contains(view, render.SQLTitle) || strings.Contains(view, render.DataTitle) {
		t.Fatalf("failure should not render SQL or table panels:\n%s", view)
	}
}

func TestLoadingShowsBusyAffordance(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	m.input.SetValue("q")
	press(m, tea.KeyCtrlJ)

	view := m.View()
	if !strings.Contains(view, busyButtonLabel) || !strings.Contains(view, render.BusyMessage) {
		t.Fatalf("expected busy affordance while loading:\n%s", view)
	}
	if strings.Contains(view, render.AnswerTitle) {
		t.Fatalf("no result section should render while loading:\n%s", view)
	}
}

func TestStaleCompletionIsDropped(t *testing.T) {
	client := &fakeClient{respond: func(question string) (ask.Response, error) {
		return ask.Response{Answer: "answer to " + question}, nil
	}}
	m := newTestModel(t, client)

	m.input.SetValue("first")
	press(m, tea.KeyCtrlJ)
	first := m.lastTicket

	m.input.SetValue("second")
	press(m, tea.KeyCtrlJ)
	second := m.lastTicket

	deliver(t, m, second)
	deliver(t, m, first)

	result, ok := m.lifecycle.State().Settled()
	if !ok {
		t.Fatal("state should be settled")
	}
	if got := ask.AnswerOf(result); got != "answer to second" {
		t.Fatalf("stale answer overwrote the latest one: %q", got)
	}
	if m.settledQuestion != "second" {
		t.Fatalf("settled question should follow the latest submission, got %q", m.settledQuestion)
	}
}

func TestButtonStyleFollowsState(t *testing.T) {
	idle := interaction{focus: focusInput}
	focused := interaction{focus: focusButton}
	busy := interaction{focus: focusButton, busy: true}

	if askButtonLabelFor(idle) != askButtonLabel || askButtonLabelFor(busy) != busyButtonLabel {
		t.Fatal("button label should reflect busy state")
	}
	if askButtonStyle(idle).GetBackground() == askButtonStyle(focused).GetBackground() {
		t.Fatal("focused button should be styled differently")
	}
	if askButtonStyle(focused).GetBackground() == askButtonStyle(busy).GetBackground() {
		t.Fatal("busy button should be styled differently")
	}
	if inputBoxStyle(idle).GetBorderTopForeground() == inputBoxStyle(focused).GetBorderTopForeground() {
		t.Fatal("input border should change with focus")
	}
}

func TestEscReturnsFocusToInput(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	press(m, tea.KeyTab)
	if m.input.Focused() {
		t.Fatal("input should blur when the button is focused")
	}
	press(m, tea.KeyEsc)
	if m.focus != focusInput || !m.input.Focused() {
		t.Fatal("esc should refocus the input")
	}
}

func TestExportRequiresSuccess(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	if cmd := press(m, tea.KeyCtrlS); cmd != nil {
		t.Fatal("export should be refused before any answer")
	}
	if m.infoMessage != "Nothing to export yet." {
		t.Fatalf("unexpected info message %q", m.infoMessage)
	}

	failing := newTestModel(t, &fakeClient{respond: func(string) (ask.Response, error) {
		return ask.Response{}, errors.New("boom")
	}})
	failing.input.SetValue("q")
	press(failing, tea.KeyCtrlJ)
	finish(t, failing)
	if cmd := press(failing, tea.KeyCtrlS); cmd != nil {
		t.Fatal("failures should not be exported")
	}
}

func TestExportWritesFile(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	m.config.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.input.SetValue("Show all projects")
	press(m, tea.KeyCtrlJ)
	finish(t, m)

	if cmd := press(m, tea.KeyCtrlS); cmd == nil {
		t.Fatal("export should start a job")
	}
	if !m.exporting {
		t.Fatal("export should be marked as running")
	}
	path := filepath.Join(m.config.ExportDir, "askdb-20260102-030405.json")
	state := m.lifecycle.State()
	result, _ := state.Settled()
	entry, err := export.FromResult(m.settledQuestion, result, m.config.Now())
	if err != nil {
		t.Fatalf("build entry: %v", err)
	}
	m.Update(m.jobs.run(m.jobs.begin(jobKindExport), exportJob(path, entry)))

	if m.exporting {
		t.Fatal("export flag should clear")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if !strings.Contains(string(data), `"question": "Show all projects"`) {
		t.Fatalf("unexpected export contents: %s", data)
	}
	if !strings.Contains(m.infoMessage, path) {
		t.Fatalf("info message should name the file, got %q", m.infoMessage)
	}
}

func TestWindowResizeUpdatesLayout(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.viewport.Width != 116 || m.viewport.Height != 25 {
		t.Fatalf("unexpected viewport size %dx%d", m.viewport.Width, m.viewport.Height)
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, projectsClient(t))
	press(m, tea.KeyF1)
	if !m.helpVisible || !strings.Contains(m.View(), "Keyboard Cheatsheet") {
		t.Fatal("f1 should show the cheatsheet")
	}
	press(m, tea.KeyF1)
	if m.helpVisible {
		t.Fatal("f1 should hide the cheatsheet again")
	}
}
