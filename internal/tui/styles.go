package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ccfd8")).Italic(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	sqlStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#f6c177"))
	noteStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#eb6f92")).Italic(true)

	accentColor = lipgloss.Color("#31748f")
	mutedColor  = lipgloss.Color("#56526e")
	busyColor   = lipgloss.Color("#f6c177")

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(1, 2)
	sqlBoxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(mutedColor).Padding(0, 1)

	inputBoxBase = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	buttonBase   = lipgloss.NewStyle().Padding(0, 3).Bold(true)
)

// interaction is what the presentation of the input and the Ask button
// depends on. Styles are a pure function of it.
type interaction struct {
	focus focusTarget
	busy  bool
}

func inputBoxStyle(state interaction) lipgloss.Style {
	if state.focus == focusInput {
		return inputBoxBase.Copy().BorderForeground(accentColor)
	}
	return inputBoxBase.Copy().BorderForeground(mutedColor)
}

func askButtonStyle(state interaction) lipgloss.Style {
	switch {
	case state.busy:
		return buttonBase.Copy().Foreground(lipgloss.Color("#0f0f0f")).Background(busyColor)
	case state.focus == focusButton:
		return buttonBase.Copy().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#9ccfd8")).Underline(true)
	default:
		return buttonBase.Copy().Foreground(lipgloss.Color("#e0def4")).Background(accentColor)
	}
}

func askButtonLabelFor(state interaction) string {
	if state.busy {
		return busyButtonLabel
	}
	return askButtonLabel
}
