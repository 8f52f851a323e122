package ui

import (
	"fmt"

	"octopanel/internal/dashboard"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// renderGauge draws one resource line. The bar uses the clamped, smoothed
// percentage; the alarm colour comes from the raw sample.
func renderGauge(g dashboard.Gauge, bar progress.Model, updating bool) string {
	label := fmt.Sprintf("%-6s", g.Label)
	value := fmt.Sprintf("%s / %s", g.Current, g.Limit)
	if g.Alarm {
		label = alarmStyle.Render(label)
		value = alarmStyle.Render(value)
	} else {
		label = descStyle.Render(label)
	}

	marker := " "
	if updating {
		marker = lipgloss.NewStyle().Foreground(secondaryColor).Render("•")
	}

	if !g.HasPercent {
		return fmt.Sprintf("%s %s %s", marker, label, value)
	}
	return fmt.Sprintf("%s %s %s %5.1f%%  %s", marker, label, bar.ViewAs(g.Clamped()/100), g.Clamped(), value)
}

// gaugeSummary is the single-line form used in list rows.
func gaugeSummary(g dashboard.Gauge) string {
	var s string
	if g.HasPercent {
		s = fmt.Sprintf("%s: %s (%.0f%%)", g.Label, g.Current, g.Clamped())
	} else {
		s = fmt.Sprintf("%s: %s", g.Label, g.Current)
	}
	if g.Alarm {
		return "⚠ " + s
	}
	return s
}
