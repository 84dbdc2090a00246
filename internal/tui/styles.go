package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title   lipgloss.Style
	Input   lipgloss.Style
	Button  lipgloss.Style
	Error   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Link    lipgloss.Style
	Muted   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Input:   lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
		Button:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Heading: lipgloss.NewStyle().Bold(true),
		Label:   lipgloss.NewStyle().Bold(true),
		Link:    lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("14")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
