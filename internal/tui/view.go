package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/core/styles"
)

var (
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.DefaultPalette.Success))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.DefaultPalette.Primary)).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.DefaultPalette.Warning)).Italic(true)
)

// View renders the tracker.
func (m Model) View() string {
	if m.snapshot == nil {
		if m.store.Loading() {
			return fmt.Sprintf("\n  %s loading your program...\n", m.spinner.View())
		}
		return "\n  " + styles.Subtle("No active program. Start one from the app, then press r.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.renderHeader(*m.snapshot))
	b.WriteString("\n\n")
	b.WriteString(m.renderChecklist())
	b.WriteString("\n")

	if m.statusMsg != "" {
		b.WriteString("  " + statusStyle.Render(m.statusMsg) + "\n")
	}

	b.WriteString("\n  " + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m Model) renderHeader(snap program.Snapshot) string {
	title := fmt.Sprintf("%s  day %d/%d  %s",
		styles.Title(strings.ToUpper(string(snap.Type))),
		snap.CurrentDayIndex, snap.DurationDays,
		styles.StatusBadge(snap.Status),
	)
	streak := styles.Subtle(fmt.Sprintf("streak %d (best %d), %d days left",
		snap.Streak.Current, snap.Streak.Longest, snap.DaysLeft()))

	completed, total, rate := program.ChecklistStats(m.checklist)
	bar := fmt.Sprintf("%s %d/%d", styles.ProgressBar(rate, 24), completed, total)

	return "  " + title + "\n  " + streak + "\n  " + bar
}

func (m Model) renderChecklist() string {
	keys := m.itemKeys()
	if len(keys) == 0 {
		return "  " + styles.Subtle("No checklist for today.") + "\n"
	}

	var b strings.Builder
	for i, key := range keys {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		box := "[ ]"
		label := m.itemLabel(key)
		if m.checklist[key] {
			box = checkedStyle.Render("[x]")
			label = checkedStyle.Render(label)
		}

		fmt.Fprintf(&b, "  %s%s %s\n", cursor, box, label)
	}
	return b.String()
}
