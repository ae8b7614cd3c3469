package ui

import "github.com/charmbracelet/lipgloss"

var (
	normalFg    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#dddddd"}
	dimNormalFg = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}

	brightGrayFg    = lipgloss.AdaptiveColor{Light: "#847A85", Dark: "#979797"}
	dimBrightGrayFg = lipgloss.AdaptiveColor{Light: "#C2B8C2", Dark: "#4D4D4D"}

	grayFg    = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGrayFg = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}

	violet    = lipgloss.Color("#9A70FF")
	dimViolet = lipgloss.AdaptiveColor{Light: "#C4B1FF", Dark: "#6B4EB2"}

	green = lipgloss.Color("#04B575")
	red   = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	amber = lipgloss.AdaptiveColor{Light: "#B08500", Dark: "#E8C156"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(violet).
			Bold(true)

	selectedGutterStyle = lipgloss.NewStyle().
				Foreground(violet)

	selectedTitleStyle = lipgloss.NewStyle().
				Foreground(violet)

	selectedSubtleStyle = lipgloss.NewStyle().
				Foreground(dimViolet)

	selectedMatchStyle = lipgloss.NewStyle().
				Foreground(violet).
				Underline(true)

	listTitleStyle = lipgloss.NewStyle().
			Foreground(normalFg)

	listSubtleStyle = lipgloss.NewStyle().
			Foreground(dimNormalFg)

	listMatchStyle = lipgloss.NewStyle().
			Foreground(normalFg).
			Underline(true)

	dimListTitleStyle = lipgloss.NewStyle().
				Foreground(dimNormalFg)

	dimListSubtleStyle = lipgloss.NewStyle().
				Foreground(dimBrightGrayFg)

	subtleStyle = lipgloss.NewStyle().
			Foreground(grayFg)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#230041")).
			Background(red).
			Padding(0, 1)

	paginationStyle = lipgloss.NewStyle().
			Foreground(midGrayFg)

	playerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(dimViolet).
				Padding(0, 1)
)

// logoView renders the application name, status-bar style.
func logoView() string {
	return logoStyle.Render(" Murmur ")
}
