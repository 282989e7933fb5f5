package cmd

import "github.com/charmbracelet/lipgloss"

// Status line styles. lipgloss drops the colors when stdout is not a terminal.
var (
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ecc71")).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12"))
	styleFail  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c")).Bold(true)
	styleTitle = lipgloss.NewStyle().Bold(true).Underline(true)
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#95a5a6"))
)
