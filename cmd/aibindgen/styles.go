package main

import "github.com/charmbracelet/lipgloss"

var (
	errorLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red
	writtenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))            // green
	summaryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))            // cyan
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
)
