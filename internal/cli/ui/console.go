package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"octopanel/internal/dashboard"
	"octopanel/pkg/sdk"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type consoleModel struct {
	view     *dashboard.ServerView
	settings *dashboard.SettingsStore
	applied  sdk.SiteSettings

	viewport  viewport.Model
	textInput textinput.Model
	bars      [3]progress.Model
	snap      dashboard.Snapshot
	lines     int

	confirmKill bool
	message     string
	ready       bool
	back        bool
	width       int
	height      int
}

func newConsoleModel(view *dashboard.ServerView, settings *dashboard.SettingsStore) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "Type a command..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	m := consoleModel{
		view:      view,
		settings:  settings,
		textInput: ti,
	}
	if s, ok := settings.Get(); ok {
		m.applied = s
	}
	for i := range m.bars {
		m.bars[i] = newBar(30)
	}
	return m
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, frameCmd())
}

func (m consoleModel) power(action string) consoleModel {
	if err := m.view.Power(action); err != nil {
		if errors.Is(err, dashboard.ErrNotConnected) {
			m.message = "Not connected to the server console"
		} else {
			m.message = fmt.Sprintf("Error: %v", err)
		}
		return m
	}
	m.message = fmt.Sprintf("Sent %s", action)
	return m
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmKill {
			m.confirmKill = false
			if msg.String() == "y" {
				m = m.power("kill")
			} else {
				m.message = "Kill cancelled."
			}
			return m, clearMessageAfter(2 * time.Second)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.back = true
			return m, tea.Quit
		case "ctrl+s":
			m = m.power("start")
			return m, clearMessageAfter(2 * time.Second)
		case "ctrl+x":
			m = m.power("stop")
			return m, clearMessageAfter(2 * time.Second)
		case "ctrl+r":
			m = m.power("restart")
			return m, clearMessageAfter(2 * time.Second)
		case "ctrl+k":
			if m.snap.Status != "stopping" {
				m.message = "Kill is only available while the server is stopping"
				return m, clearMessageAfter(2 * time.Second)
			}
			m.confirmKill = true
			m.message = "Kill the server process? Unsaved data may be lost. (y/n)"
			return m, nil
		case "enter":
			if line := m.textInput.Value(); line != "" {
				m.textInput.SetValue("")
				if err := m.view.SendCommand(line); err != nil {
					m.message = fmt.Sprintf("Error: %v", err)
					return m, clearMessageAfter(2 * time.Second)
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 18
		contentWidth := msg.Width - 6
		if !m.ready {
			m.viewport = viewport.New(contentWidth, msg.Height-headerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = msg.Height - headerHeight
		}
		for i := range m.bars {
			m.bars[i].Width = max(10, msg.Width/3)
		}

	case frameMsg:
		if s, ok := m.settings.Get(); ok && s != m.applied {
			m.applied = s
			ApplySettings(s)
			for i := range m.bars {
				w := m.bars[i].Width
				m.bars[i] = newBar(w)
			}
		}
		m.snap = m.view.Snapshot()
		if len(m.snap.Console) != m.lines && m.ready {
			m.lines = len(m.snap.Console)
			m.viewport.SetContent(strings.Join(m.snap.Console, "\n"))
			m.viewport.GotoBottom()
		}
		return m, frameCmd()

	case clearMessageMsg:
		if !m.confirmKill {
			m.message = ""
		}
		return m, nil
	}

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m consoleModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	srv := m.snap.Server
	title := headerStyle.Width(m.width).Render(siteName + " • " + srv.Name)

	info := fmt.Sprintf("%s %s  •  ID: %s  •  Address: %s  •  Socket: %s",
		statusIcon(m.snap.Status),
		statusStyle(m.snap.Status).Render(m.snap.StatusLabel),
		srv.ID,
		m.snap.Address,
		m.snap.Connection,
	)

	var resources string
	switch {
	case m.snap.Unavailable != "":
		resources = alarmStyle.Render(m.snap.Unavailable)
	case !m.snap.HasStats:
		resources = descStyle.Render("Waiting for resource data...")
	default:
		lines := []string{
			renderGauge(m.snap.CPU, m.bars[0], m.snap.Updating),
			renderGauge(m.snap.Memory, m.bars[1], m.snap.Updating),
			renderGauge(m.snap.Disk, m.bars[2], m.snap.Updating),
		}
		uptime := "Offline"
		if m.snap.Status == "running" {
			uptime = m.snap.Uptime
		}
		lines = append(lines, descStyle.Render(fmt.Sprintf("  Uptime: %s  •  Network ↓ %s ↑ %s",
			uptime, m.snap.NetworkRx, m.snap.NetworkTx)))
		resources = strings.Join(lines, "\n")
	}

	headerBox := baseStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, info, "", resources))

	console := baseStyle.
		Width(m.width - 4).
		Render(m.viewport.View())

	help := keyHelp("ctrl+s", "start", "ctrl+x", "stop", "ctrl+r", "restart", "ctrl+k", "kill", "esc", "back", "ctrl+c", "quit")
	helpLine := lipgloss.NewStyle().Width(m.width - 6).Align(lipgloss.Center).Render(help)

	footer := lipgloss.JoinVertical(lipgloss.Left, fmt.Sprintf("→ %s", m.textInput.View()), "", helpLine)
	if m.message != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, messageStyle.Render(m.message), footer)
	}

	footerBox := footerStyle.
		Width(m.width - 4).
		Align(lipgloss.Left).
		Render(footer)

	return lipgloss.JoinVertical(lipgloss.Center, title, headerBox, console, footerBox)
}

// RunConsole opens the live view of one server. It reports whether the user
// asked to go back to the server list.
func RunConsole(client *sdk.Client, settings *dashboard.SettingsStore, id string, logger *slog.Logger) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	srv, err := client.GetServer(ctx, id)
	cancel()
	if err != nil {
		return true, fmt.Errorf("error loading server %s: %w", id, err)
	}

	view := dashboard.NewServerView(client, *srv, dashboard.ViewOptions{
		Settings: settings,
		Socket:   true,
	}, logger)
	defer view.Close()

	p := tea.NewProgram(newConsoleModel(view, settings), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running console: %w", err)
	}
	if cm, ok := final.(consoleModel); ok {
		return cm.back, nil
	}
	return false, nil
}
