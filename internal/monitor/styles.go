package monitor

import "github.com/charmbracelet/lipgloss"

// Dashboard color palette. ANSI colors so the dashboard follows the
// terminal theme.
const (
	ColorBlue         = lipgloss.Color("4")
	ColorBrightBlue   = lipgloss.Color("12")
	ColorBrightGreen  = lipgloss.Color("10")
	ColorBrightYellow = lipgloss.Color("11")
	ColorYellow       = lipgloss.Color("3")
	ColorBrightRed    = lipgloss.Color("9")
	ColorRed          = lipgloss.Color("1")

	ColorUp   = ColorBrightGreen
	ColorDown = ColorRed

	ColorTextMuted = lipgloss.Color("8")
)

// Base styles for the dashboard
var (
	LabelStyle = lipgloss.NewStyle().
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)
)

// usageScale maps an upper bound (exclusive) to a color. The last entry
// catches everything else.
type usageScale []struct {
	below float64
	color lipgloss.Color
}

func (s usageScale) color(v float64) lipgloss.Color {
	for _, step := range s[:len(s)-1] {
		if v < step.below {
			return step.color
		}
	}
	return s[len(s)-1].color
}

var (
	usageColors = usageScale{
		{5, ColorBlue},
		{10, ColorBrightBlue},
		{25, ColorBrightGreen},
		{50, ColorBrightYellow},
		{75, ColorYellow},
		{90, ColorBrightRed},
		{0, ColorRed},
	}

	temperatureColors = usageScale{
		{39, ColorBlue},
		{40, ColorBrightGreen},
		{45, ColorBrightYellow},
		{55, ColorYellow},
		{65, ColorBrightRed},
		{0, ColorRed},
	}
)

// UsageColor returns the color for a usage percentage.
func UsageColor(percent float64) lipgloss.Color {
	return usageColors.color(percent)
}

// TemperatureColor returns the color for a temperature in °C.
func TemperatureColor(celsius float64) lipgloss.Color {
	return temperatureColors.color(celsius)
}

// UpDownColor returns the color for an up/down state.
func UpDownColor(up bool) lipgloss.Color {
	if up {
		return ColorUp
	}
	return ColorDown
}

func colored(c lipgloss.Color, s string) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}
