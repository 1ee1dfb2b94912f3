package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/askdb/internal/render"
)

func (m *model) View() string {
	parts := []string{m.heroView(), m.inputPanel()}

	display := render.Render(m.lifecycle.State())
	switch {
	case display.Busy:
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), render.BusyMessage)))
	case display.Result != nil:
		parts = append(parts, m.viewport.View())
	default:
		parts = append(parts, helperStyle.Render("The answer, the generated SQL, and the result rows will appear here."))
	}

	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	parts = append(parts, m.statusLine())
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	title := titleStyle.Render("askdb")
	endpoint := ""
	if m.config.Client != nil {
		endpoint = helperStyle.Render("  " + m.config.Client.Endpoint())
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, title, endpoint),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) inputPanel() string {
	state := m.interaction()
	label := lipgloss.JoinHorizontal(
		lipgloss.Top,
		sectionHeaderStyle.Render("Question"),
		helperStyle.Render("  "+inputHint),
	)
	button := askButtonStyle(state).Render(askButtonLabelFor(state))
	return lipgloss.JoinVertical(
		lipgloss.Left,
		label,
		inputBoxStyle(state).Render(m.input.View()),
		button,
	)
}

func (m *model) statusLine() string {
	state := m.lifecycle.State()
	stats := []string{fmt.Sprintf("State %s", state.Phase)}
	if m.lastAsk != nil {
		stats = append(stats, fmt.Sprintf("Last ask %s (%s)", m.lastAsk.Duration.Round(time.Millisecond), m.lastAsk.Status))
	}
	stats = append(stats, m.jobStatusBadges()...)
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	if len(m.running) == 0 {
		return nil
	}
	counts := map[jobKind]int{}
	for _, snapshot := range m.running {
		counts[snapshot.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	badges := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		badges = append(badges, fmt.Sprintf("%s×%d running", kind, counts[jobKind(kind)]))
	}
	return badges
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func (m *model) keyLegendView() string {
	bindings := []key.Binding{
		keys.Submit,
		keys.NextFocus,
		keys.Press,
		keys.FocusInput,
		keys.PageUp,
		keys.PageDown,
		keys.Export,
		keys.Help,
		keys.Quit,
	}
	rows := []string{sectionHeaderStyle.Render("Keyboard Cheatsheet")}
	const columns = 3
	for i := 0; i < len(bindings); i += columns {
		end := i + columns
		if end > len(bindings) {
			end = len(bindings)
		}
		var cells []string
		for _, binding := range bindings[i:end] {
			help := binding.Help()
			cells = append(cells, lipgloss.JoinHorizontal(
				lipgloss.Top,
				keyStyle.Render(help.Key),
				keyDescStyle.Render(" "+help.Desc+"  "),
			))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}
