package ui

import (
	"fmt"
	"time"

	"octopanel/pkg/sdk"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   lipgloss.TerminalColor = lipgloss.Color("#8b5cf6")
	secondaryColor lipgloss.TerminalColor = lipgloss.Color("#7c3aed")
	alarmColor                            = lipgloss.Color("196")
	mutedColor                            = lipgloss.Color("240")

	cardStyle    = "gradient"
	frameEvery   = 50 * time.Millisecond
	panelBorder  = lipgloss.RoundedBorder()
	siteName     = "Octopanel"
	baseStyle    lipgloss.Style
	headerStyle  lipgloss.Style
	titleStyle   lipgloss.Style
	keyStyle     lipgloss.Style
	descStyle    lipgloss.Style
	footerStyle  lipgloss.Style
	messageStyle lipgloss.Style
	alarmStyle   lipgloss.Style
)

func init() {
	buildStyles(204)
}

// ApplySettings derives the terminal styles from the site theme.
func ApplySettings(s sdk.SiteSettings) {
	t := s.Theme
	if s.Name != "" {
		siteName = s.Name
	}
	if t.PrimaryColor != "" {
		primaryColor = lipgloss.Color(t.PrimaryColor)
	}
	if t.SecondaryColor != "" {
		secondaryColor = lipgloss.Color(t.SecondaryColor)
	}
	if t.CardStyle != "" {
		cardStyle = t.CardStyle
	}
	if t.BorderRadius == 0 {
		panelBorder = lipgloss.NormalBorder()
	} else {
		panelBorder = lipgloss.RoundedBorder()
	}
	switch t.AnimationSpeed {
	case "fast":
		frameEvery = 33 * time.Millisecond
	case "slow":
		frameEvery = 100 * time.Millisecond
	default:
		frameEvery = 50 * time.Millisecond
	}

	contrast := t.TextContrast
	if contrast <= 0 || contrast > 100 {
		contrast = 80
	}
	buildStyles(contrast * 255 / 100)
}

func buildStyles(gray int) {
	text := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", gray, gray, gray))

	baseStyle = lipgloss.NewStyle().
		BorderStyle(panelBorder).
		BorderForeground(primaryColor).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(primaryColor).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(secondaryColor).
		Bold(true).
		Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	descStyle = lipgloss.NewStyle().Foreground(text)

	footerStyle = lipgloss.NewStyle().
		BorderStyle(panelBorder).
		BorderForeground(primaryColor).
		Padding(0, 1).
		Align(lipgloss.Center)

	messageStyle = lipgloss.NewStyle().MarginLeft(2).Foreground(secondaryColor).Bold(true)
	alarmStyle = lipgloss.NewStyle().Foreground(alarmColor).Bold(true)

	if cardStyle == "glassmorphism" {
		baseStyle = baseStyle.BorderForeground(mutedColor)
		footerStyle = footerStyle.BorderForeground(mutedColor)
	}
}

// newBar builds a gauge bar in the theme's card style.
func newBar(width int) progress.Model {
	var bar progress.Model
	switch cardStyle {
	case "solid", "glassmorphism":
		bar = progress.New(progress.WithSolidFill(colorString(primaryColor)), progress.WithoutPercentage())
	default:
		bar = progress.New(progress.WithGradient(colorString(primaryColor), colorString(secondaryColor)), progress.WithoutPercentage())
	}
	bar.Width = width
	return bar
}

func colorString(c lipgloss.TerminalColor) string {
	if col, ok := c.(lipgloss.Color); ok {
		return string(col)
	}
	return "#8b5cf6"
}

func statusStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case "starting":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	case "stopping":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	}
}

func statusIcon(state string) string {
	switch state {
	case "running":
		return "🟢"
	case "starting":
		return "🟡"
	case "stopping":
		return "🟠"
	default:
		return "🔴"
	}
}

func keyHelp(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			out += lipgloss.NewStyle().Foreground(mutedColor).Render(" • ")
		}
		out += keyStyle.Render(pairs[i]) + descStyle.Render(": "+pairs[i+1])
	}
	return out
}
