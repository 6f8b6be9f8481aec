package ui

import "github.com/charmbracelet/lipgloss"

// StyleManager encapsulates the browse view styles
type StyleManager struct {
	Title    lipgloss.Style
	ListPane lipgloss.Style
	Preview  lipgloss.Style
	Dim      lipgloss.Style
	Focused  lipgloss.Color
	Blurred  lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		ListPane: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		Preview:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Focused:  lipgloss.Color("212"),
		Blurred:  lipgloss.Color("240"),
	}
}

// focusBorder recolors a pane border to show which pane has focus
func (s *StyleManager) focusBorder(style lipgloss.Style, focused bool) lipgloss.Style {
	if focused {
		return style.BorderForeground(s.Focused)
	}
	return style.BorderForeground(s.Blurred)
}
