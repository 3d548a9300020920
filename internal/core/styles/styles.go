// Package styles provides shared lipgloss styles for CLI and TUI output.
package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/strideapp/stride/internal/core/program"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    string
	Foreground string
	Muted      string
	Surface    string
	Success    string
	Warning    string
	Error      string
}

// DefaultPalette is a tokyo-night flavored theme.
var DefaultPalette = Palette{
	Primary:    "#7aa2f7",
	Foreground: "#c0caf5",
	Muted:      "#565f89",
	Surface:    "#3b4261",
	Success:    "#9ece6a",
	Warning:    "#e0af68",
	Error:      "#f7768e",
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(DefaultPalette.Primary))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(DefaultPalette.Muted))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(DefaultPalette.Success))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(DefaultPalette.Warning))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(DefaultPalette.Error))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(DefaultPalette.Surface)).
			Padding(0, 1)
)

// Title renders prominent heading text.
func Title(s string) string { return titleStyle.Render(s) }

// Subtle renders de-emphasized text.
func Subtle(s string) string { return subtleStyle.Render(s) }

// Success renders positive text.
func Success(s string) string { return successStyle.Render(s) }

// Warning renders cautionary text.
func Warning(s string) string { return warningStyle.Render(s) }

// Error renders failure text.
func Error(s string) string { return errorStyle.Render(s) }

// StatusBadge renders a program status with its semantic color.
func StatusBadge(status program.Status) string {
	switch status {
	case program.StatusActive:
		return successStyle.Render(string(status))
	case program.StatusPaused:
		return warningStyle.Render(string(status))
	case program.StatusCompleted:
		return titleStyle.Render(string(status))
	default:
		return string(status)
	}
}

// ProgressBar renders a fixed-width completion bar for a 0..1 rate.
func ProgressBar(rate float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	filled := int(rate*float64(width) + 0.5)
	return successStyle.Render(strings.Repeat("█", filled)) + subtleStyle.Render(strings.Repeat("░", width-filled))
}

// RenderStatus renders a one-card summary of the active program.
func RenderStatus(snap program.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", Title(strings.ToTitle(string(snap.Type))), StatusBadge(snap.Status))
	fmt.Fprintf(&b, "Day %d of %d (%d left)\n", snap.CurrentDayIndex, snap.DurationDays, snap.DaysLeft())
	fmt.Fprintf(&b, "Streak %d (best %d)\n", snap.Streak.Current, snap.Streak.Longest)
	fmt.Fprintf(&b, "Today  %s %d/%d",
		ProgressBar(snap.TodayLog.CompletionRate, 20),
		snap.TodayLog.CompletedCount, snap.TodayLog.TotalCount)
	if snap.TodayLog.Completed {
		fmt.Fprintf(&b, " %s", Success("done"))
	}

	return cardStyle.Render(b.String())
}
