package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleGreen = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleRed   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleGray  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	styleEventInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleEventError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	stats := m.renderStats()
	if preview := m.previewLines(); preview != "" {
		stats = lipgloss.JoinHorizontal(lipgloss.Top, stats, stylePanel.Render("best seed\n"+preview))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderProgress(),
		stats,
		m.renderEvents(),
		styleGray.Render("q: quit"),
	)
}

func (m Model) renderHeader() string {
	parts := []string{m.title}
	if m.snapshot.RunID != "" {
		parts = append(parts, "run="+m.snapshot.RunID)
	}
	parts = append(parts, "runtime="+FormatDuration(time.Since(m.startTime)))
	return styleHeader.Render(strings.Join(parts, " │ "))
}

func (m Model) renderProgress() string {
	return fmt.Sprintf(" %s generation %d/%d",
		m.progress.ViewAs(m.fraction()),
		m.snapshot.Generation,
		m.snapshot.Generations,
	)
}

func (m Model) renderStats() string {
	s := m.snapshot
	return stylePanel.Width(48).Render(strings.Join([]string{
		"best fitness: " + m.bestColor(s.BestFitness),
		fmt.Sprintf("best steps:   %d (%s)", s.BestSteps, s.BestState),
		fmt.Sprintf("mean fitness: %.3f", s.MeanFitness),
		fmt.Sprintf("unique:       %d", s.Unique),
		fmt.Sprintf("outcomes:     stabilized=%d timed_out=%d", s.Stabilized, s.TimedOut),
		fmt.Sprintf("last gen:     %s", FormatDuration(s.LastDuration)),
	}, "\n"))
}

func (m Model) renderEvents() string {
	lines := m.recentEvents(8)
	if len(lines) == 0 {
		lines = []string{styleGray.Render("waiting for the first generation")}
	}
	return stylePanel.Render(strings.Join(lines, "\n"))
}

func (m Model) bestColor(best float64) string {
	text := fmt.Sprintf("%.3f", best)
	switch {
	case best > m.prevBest:
		return styleGreen.Render(text + " ↑")
	case best < m.prevBest:
		return styleRed.Render(text + " ↓")
	}
	return text
}

func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, mins, secs)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
