package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for the chat view.
type Theme struct {
	Advisor      lipgloss.Color
	Receptionist lipgloss.Color
	User         lipgloss.Color
	Hint         lipgloss.Color
	Error        lipgloss.Color
	Success      lipgloss.Color
	Premium      lipgloss.Color
}

// defaultTheme mirrors the product palette: saffron for the advisor, deep
// slate for the user.
var defaultTheme = Theme{
	Advisor:      lipgloss.Color("#F36A2F"),
	Receptionist: lipgloss.Color("#DC5D35"),
	User:         lipgloss.Color("#2F3148"),
	Hint:         lipgloss.Color("#6C6C6C"),
	Error:        lipgloss.Color("#FF005F"),
	Success:      lipgloss.Color("#00D787"),
	Premium:      lipgloss.Color("#B45309"),
}

func (t Theme) advisorLabel() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Advisor).Bold(true)
}

func (t Theme) receptionistLabel() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Receptionist).Bold(true)
}

func (t Theme) userLabel() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) premiumStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Premium)
}

func (t Theme) summaryBox() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Advisor).
		Padding(1, 2)
}
