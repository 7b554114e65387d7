// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import "github.com/charmbracelet/lipgloss"

var (
	StyleApp = lipgloss.NewStyle().Padding(1, 2)

	StyleTopBar = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	StyleSubtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	StyleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			MarginRight(2)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	StyleMenuItem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	StyleMenuItemActive = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("86")).
				Padding(0, 1)

	StyleStatusGood = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	StyleStatusWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	StyleStatusBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// statusStyle picks the status color for a tunnel state string.
func statusStyle(state string) lipgloss.Style {
	switch state {
	case "UP":
		return StyleStatusGood
	case "BRINGING_UP", "BRINGING_DOWN":
		return StyleStatusWarn
	default:
		return StyleStatusBad
	}
}
