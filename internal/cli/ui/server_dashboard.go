package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"octopanel/internal/dashboard"
	"octopanel/pkg/sdk"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const requestTimeout = 10 * time.Second

type dashboardMode int

const (
	ViewDashboard dashboardMode = iota
	ViewWizard
	ViewDeleteConfirm
)

type model struct {
	list     list.Model
	client   *sdk.Client
	settings *dashboard.SettingsStore
	logger   *slog.Logger
	views    map[string]*dashboard.ServerView
	order    []string
	applied  sdk.SiteSettings

	width   int
	height  int
	message string
	choice  string

	mode             dashboardMode
	wizard           tea.Model
	deleteServerID   string
	deleteServerName string
}

type serversMsg []sdk.Server
type errMsg error
type frameMsg time.Time
type clearMessageMsg struct{}
type statusMsg string

// RunServerDashboard shows every server with its own resource poller and
// returns the id picked with enter, or "" on quit.
func RunServerDashboard(client *sdk.Client, settings *dashboard.SettingsStore, logger *slog.Logger) (string, error) {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Servers"
	l.SetShowStatusBar(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	l.Styles.HelpStyle = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)

	m := model{
		list:     l,
		client:   client,
		settings: settings,
		logger:   logger,
		views:    make(map[string]*dashboard.ServerView),
	}
	if s, ok := settings.Get(); ok {
		m.applied = s
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	finalModel, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("error running dashboard: %w", err)
	}

	final, ok := finalModel.(model)
	if !ok {
		return "", nil
	}
	final.closeViews()
	return final.choice, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchServersCmd(m.client), frameCmd())
}

func fetchServersCmd(client *sdk.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		servers, err := client.ListServers(ctx)
		if err != nil {
			return errMsg(err)
		}
		return serversMsg(servers)
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameEvery, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func clearMessageAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearMessageMsg{} })
}

func powerCmd(client *sdk.Client, id, name, signal string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := client.Power(ctx, id, signal); err != nil {
			return statusMsg(fmt.Sprintf("Error sending %s to %s: %v", signal, name, err))
		}
		return statusMsg(fmt.Sprintf("Sent %s to %s", signal, name))
	}
}

func deleteCmd(client *sdk.Client, id, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := client.DeleteServer(ctx, id); err != nil {
			return statusMsg(fmt.Sprintf("Error deleting %s: %v", name, err))
		}
		return statusMsg(fmt.Sprintf("Deleted %s", name))
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == ViewWizard {
		switch msg := msg.(type) {
		case WizardDoneMsg:
			m.mode = ViewDashboard
			m.message = fmt.Sprintf("Server %s created", msg.Server.Name)
			return m, tea.Batch(fetchServersCmd(m.client), clearMessageAfter(3*time.Second))
		case WizardCancelMsg:
			m.mode = ViewDashboard
			m.message = "Server creation cancelled."
			return m, clearMessageAfter(2 * time.Second)
		case frameMsg:
			return m, frameCmd()
		}
		var cmd tea.Cmd
		m.wizard, cmd = m.wizard.Update(msg)
		return m, cmd
	}

	if m.mode == ViewDeleteConfirm {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "y", "enter":
				m.mode = ViewDashboard
				m.message = fmt.Sprintf("Deleting server %s...", m.deleteServerName)
				return m, deleteCmd(m.client, m.deleteServerID, m.deleteServerName)
			case "n", "esc":
				m.mode = ViewDashboard
				m.message = "Deletion cancelled."
				return m, clearMessageAfter(2 * time.Second)
			}
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "c":
			m.mode = ViewWizard
			wm := NewWizardModel(m.client, m.width, m.height)
			m.wizard = wm
			return m, wm.Init()
		case "r":
			return m, fetchServersCmd(m.client)
		case "s", "x":
			srv, ok := m.selected()
			if !ok {
				break
			}
			signal := "start"
			if msg.String() == "x" {
				signal = "stop"
			}
			m.message = fmt.Sprintf("Sending %s to %s...", signal, srv.Name)
			return m, powerCmd(m.client, srv.ID, srv.Name, signal)
		case "d":
			srv, ok := m.selected()
			if !ok {
				break
			}
			m.deleteServerID = srv.ID
			m.deleteServerName = srv.Name
			m.mode = ViewDeleteConfirm
			return m, nil
		case "enter":
			if srv, ok := m.selected(); ok {
				m.choice = srv.ID
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width - 4)
		m.list.SetHeight(msg.Height - 12)
	case serversMsg:
		m.syncViews(msg)
		m.refreshItems()
		return m, nil
	case frameMsg:
		m.applyThemeChanges()
		m.refreshItems()
		return m, frameCmd()
	case statusMsg:
		m.message = string(msg)
		return m, tea.Batch(fetchServersCmd(m.client), clearMessageAfter(3*time.Second))
	case clearMessageMsg:
		m.message = ""
		return m, nil
	case errMsg:
		m.message = fmt.Sprintf("Error: %v", error(msg))
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) selected() (sdk.Server, bool) {
	i, ok := m.list.SelectedItem().(serverItem)
	if !ok {
		return sdk.Server{}, false
	}
	return i.snap.Server, true
}

// syncViews starts a view per new server, replaces views whose server
// changed and closes views of removed ones.
func (m *model) syncViews(servers []sdk.Server) {
	seen := make(map[string]bool, len(servers))
	m.order = m.order[:0]
	for _, srv := range servers {
		seen[srv.ID] = true
		m.order = append(m.order, srv.ID)
		if v, ok := m.views[srv.ID]; ok {
			if v.Matches(srv) {
				continue
			}
			v.Close()
		}
		m.views[srv.ID] = dashboard.NewServerView(m.client, srv, dashboard.ViewOptions{
			Settings: m.settings,
		}, m.logger)
	}
	for id, v := range m.views {
		if !seen[id] {
			v.Close()
			delete(m.views, id)
		}
	}
}

func (m *model) refreshItems() {
	items := make([]list.Item, 0, len(m.order))
	for _, id := range m.order {
		if v, ok := m.views[id]; ok {
			items = append(items, serverItem{snap: v.Snapshot()})
		}
	}
	m.list.SetItems(items)
}

func (m *model) applyThemeChanges() {
	s, ok := m.settings.Get()
	if !ok || s == m.applied {
		return
	}
	m.applied = s
	ApplySettings(s)
	m.list.Styles.Title = titleStyle
}

func (m model) closeViews() {
	for _, v := range m.views {
		v.Close()
	}
}

func (m model) View() string {
	if m.mode == ViewWizard {
		return m.wizard.View()
	}
	if m.width == 0 {
		return "Loading..."
	}

	title := headerStyle.Width(m.width).Render(siteName)

	if m.mode == ViewDeleteConfirm {
		content := fmt.Sprintf("\nAre you sure you want to delete server:\n\n%s\n\n(y/n)",
			alarmStyle.Render(m.deleteServerName))
		confirmBox := baseStyle.
			Width(m.width-4).
			Height(m.height-4).
			Align(lipgloss.Center, lipgloss.Center).
			Render(content)
		return lipgloss.JoinVertical(lipgloss.Center, title, confirmBox)
	}

	running := 0
	for _, v := range m.views {
		if v.Snapshot().Status == "running" {
			running++
		}
	}
	headerBox := baseStyle.
		Width(m.width - 4).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("Panel: %s\nServers: %d • Online: %d", m.client.BaseURL(), len(m.order), running))

	listContainer := baseStyle.
		Width(m.width - 4).
		Height(m.height - 12).
		Render(m.list.View())

	footerBox := footerStyle.
		Width(m.width - 4).
		Render(keyHelp("c", "create", "s", "start", "x", "stop", "d", "delete", "r", "refresh", "enter", "console", "q/esc", "quit"))

	if m.message != "" {
		footerBox = fmt.Sprintf("%s\n%s", messageStyle.Render(m.message), footerBox)
	}

	return lipgloss.JoinVertical(lipgloss.Center, title, headerBox, listContainer, footerBox)
}
