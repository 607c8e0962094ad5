package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status output. ANSI codes so they follow the terminal
// theme.
const (
	ColorSuccess lipgloss.Color = "2"
	ColorError   lipgloss.Color = "1"
	ColorWarning lipgloss.Color = "3"
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7"
	ColorSecondary lipgloss.Color = "4"
	ColorMuted     lipgloss.Color = "8"
)

// Success renders a green check followed by msg.
func Success(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolSuccess) + " " + msg
}

// Fail renders a red cross followed by msg.
func Fail(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorError).Render(SymbolFail) + " " + msg
}

// Muted renders secondary text.
func Muted(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(msg)
}

// Warning renders a yellow mark followed by msg.
func Warning(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolWarning) + " " + msg
}
