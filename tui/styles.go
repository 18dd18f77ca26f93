// ABOUTME: Defines lipgloss styles for the flow summary panels, node statuses, and diagnostics.
// ABOUTME: Provides StyleForStatus and StyleForSeverity to map findings to display styles.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Status colors
	CleanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	InactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	InfoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	WarningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	EdgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Diagnostic rule labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(22)
)

// StyleForStatus returns the appropriate lipgloss style for a NodeStatus.
func StyleForStatus(status NodeStatus) lipgloss.Style {
	switch status {
	case NodeClean:
		return CleanStyle
	case NodeInactive:
		return InactiveStyle
	case NodeInfo:
		return InfoStyle
	case NodeWarning:
		return WarningStyle
	case NodeError:
		return ErrorStyle
	default:
		return CleanStyle
	}
}

// StyleForSeverity returns the style for a diagnostic severity.
func StyleForSeverity(severity string) lipgloss.Style {
	return StyleForStatus(statusForSeverity(severity))
}
