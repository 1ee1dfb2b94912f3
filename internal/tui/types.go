package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/csheth/askdb/internal/session"
)

type focusTarget int

const (
	focusInput focusTarget = iota
	focusButton
)

const heroTagline = "Ask your database in plain language."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	inputCharLimit            = 4000
)

const (
	inputPlaceholder = "Show all projects created this year…"
	inputHint        = "Press Ctrl+Enter to submit"
	askButtonLabel   = "Ask"
	busyButtonLabel  = "Asking…"
)

type keyMap struct {
	Submit     key.Binding
	Press      key.Binding
	NextFocus  key.Binding
	PrevFocus  key.Binding
	Export     key.Binding
	Help       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Quit       key.Binding
	FocusInput key.Binding
}

// Terminals rarely report Ctrl+Enter itself; most send it as Ctrl+J (LF).
var keys = keyMap{
	Submit:     key.NewBinding(key.WithKeys("ctrl+j", "alt+enter"), key.WithHelp("Ctrl+Enter", "Submit question")),
	Press:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("Enter", "Press Ask")),
	NextFocus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Switch focus")),
	PrevFocus:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("Shift+Tab", "Switch focus")),
	Export:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("Ctrl+S", "Export result")),
	Help:       key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Toggle cheatsheet")),
	PageUp:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("PgUp", "Scroll up")),
	PageDown:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("PgDn", "Scroll down")),
	Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("Ctrl+C", "Quit")),
	FocusInput: key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back to input")),
}

type submissionResultMsg struct {
	outcome session.Outcome
}

type exportResultMsg struct {
	path string
	err  error
}
