package styles

import "github.com/charmbracelet/lipgloss"

var (
	Accent  = lipgloss.Color("#E8505B")
	Paper   = lipgloss.Color("#F4EBD9")
	Ink     = lipgloss.Color("#8C8C9A")
	Good    = lipgloss.Color("#7BC67E")
	Caution = lipgloss.Color("#F2B84B")
	Bad     = lipgloss.Color("#E05A47")
	Active  = lipgloss.Color("#5FA8D3")
	Tab     = lipgloss.Color("#2F3440")

	RoundedBorder = lipgloss.RoundedBorder()
	ThickBorder   = lipgloss.ThickBorder()
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Paper).
			Italic(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(Paper)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Ink)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			BorderStyle(RoundedBorder).
			BorderForeground(Accent).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(RoundedBorder).
			BorderForeground(Ink).
			Padding(0, 2).
			MarginBottom(1)

	ActiveCardStyle = lipgloss.NewStyle().
			Border(ThickBorder).
			BorderForeground(Accent).
			Padding(0, 2).
			MarginBottom(1)

	StatusDownloading = lipgloss.NewStyle().
				Foreground(Active).
				Bold(true)

	StatusCompleted = lipgloss.NewStyle().
			Foreground(Good).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Caution).
			Bold(true)

	StatusError = lipgloss.NewStyle().
			Foreground(Bad).
			Bold(true)

	// Chapters at or before a watched series' bookmark.
	BookmarkStyle = lipgloss.NewStyle().
			Foreground(Good)

	// [start] / [end] labels on the chapters screen.
	RangeMarkStyle = lipgloss.NewStyle().
			Foreground(Caution).
			Bold(true)

	ProgressBarStyle = lipgloss.NewStyle().
				Foreground(Active)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Background(Tab).
			Padding(0, 2).
			Bold(true)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(Ink).
				Padding(0, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Ink).
			Italic(true).
			MarginTop(1)

	InputStyle = lipgloss.NewStyle().
			Border(RoundedBorder).
			BorderForeground(Ink).
			Padding(0, 1)

	FocusedInputStyle = lipgloss.NewStyle().
				Border(RoundedBorder).
				BorderForeground(Accent).
				Padding(0, 1)
)

// StatusStyle colours a progress status or run state.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "downloading", "listing", "running":
		return StatusDownloading
	case "completed", "complete", "advanced":
		return StatusCompleted
	case "partial", "cancelled":
		return StatusWarning
	case "error", "failed":
		return StatusError
	default:
		return MutedStyle
	}
}

// OutcomeStyle colours a page outcome count; zero counts are muted.
func OutcomeStyle(outcome string, count int) lipgloss.Style {
	if count == 0 {
		return MutedStyle
	}
	switch outcome {
	case "downloaded":
		return StatusCompleted
	case "failed":
		return StatusError
	case "cancelled":
		return StatusWarning
	default:
		return TextStyle
	}
}
