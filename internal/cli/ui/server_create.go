package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"octopanel/pkg/sdk"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type WizardStep int

const (
	StepName WizardStep = iota
	StepStartup
	StepLimits
	StepConfirm
)

const (
	fieldMemory = iota
	fieldDisk
	fieldCPU
)

type WizardModel struct {
	client       *sdk.Client
	step         WizardStep
	nameInput    textinput.Model
	startupInput textinput.Model
	limitInputs  []textinput.Model
	focused      int
	width        int
	height       int
	err          error
	creating     bool
	spinner      spinner.Model
}

type WizardDoneMsg struct {
	Server *sdk.Server
}
type WizardCancelMsg struct{}
type wizardErrMsg error

func NewWizardModel(client *sdk.Client, width, height int) WizardModel {
	name := textinput.New()
	name.Placeholder = "My Awesome Server"
	name.Focus()
	name.CharLimit = 191
	name.Width = 30

	startup := textinput.New()
	startup.Placeholder = "java -Xmx2G -jar server.jar nogui"
	startup.CharLimit = 500
	startup.Width = 50

	limits := make([]textinput.Model, 3)
	for i, ph := range []string{"memory MB (0 = unlimited)", "disk MB (0 = unlimited)", "cpu % (0 = unlimited)"} {
		ti := textinput.New()
		ti.Placeholder = ph
		ti.CharLimit = 7
		ti.Width = 30
		limits[i] = ti
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(secondaryColor)

	return WizardModel{
		client:       client,
		nameInput:    name,
		startupInput: startup,
		limitInputs:  limits,
		width:        width,
		height:       height,
		spinner:      s,
	}
}

func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m WizardModel) request() (sdk.CreateServerRequest, error) {
	req := sdk.CreateServerRequest{
		Name:    strings.TrimSpace(m.nameInput.Value()),
		Startup: strings.TrimSpace(m.startupInput.Value()),
	}
	parse := func(i int) (int64, error) {
		v := strings.TrimSpace(m.limitInputs[i].Value())
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%q is not a valid limit", v)
		}
		return n, nil
	}

	var err error
	if req.Limits.Memory, err = parse(fieldMemory); err != nil {
		return req, err
	}
	if req.Limits.Disk, err = parse(fieldDisk); err != nil {
		return req, err
	}
	cpu, err := parse(fieldCPU)
	if err != nil {
		return req, err
	}
	req.Limits.CPU = int(cpu)
	return req, nil
}

func (m WizardModel) create(req sdk.CreateServerRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		srv, err := m.client.CreateServer(ctx, req)
		if err != nil {
			return wizardErrMsg(err)
		}
		return WizardDoneMsg{Server: srv}
	}
}

func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case wizardErrMsg:
		m.creating = false
		m.err = msg
		return m, nil
	case tea.KeyMsg:
		if m.creating {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.step > StepName {
				m.step--
				m.err = nil
				cmd := m.focusStep()
				return m, cmd
			}
			return m, func() tea.Msg { return WizardCancelMsg{} }
		case "tab", "down":
			if m.step == StepLimits {
				m.focused = (m.focused + 1) % len(m.limitInputs)
				cmd := m.focusStep()
				return m, cmd
			}
		case "shift+tab", "up":
			if m.step == StepLimits {
				m.focused = (m.focused + len(m.limitInputs) - 1) % len(m.limitInputs)
				cmd := m.focusStep()
				return m, cmd
			}
		case "enter":
			return m.advance()
		}
	}

	var cmd tea.Cmd
	switch m.step {
	case StepName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case StepStartup:
		m.startupInput, cmd = m.startupInput.Update(msg)
	case StepLimits:
		m.limitInputs[m.focused], cmd = m.limitInputs[m.focused].Update(msg)
	}
	return m, cmd
}

func (m WizardModel) advance() (tea.Model, tea.Cmd) {
	m.err = nil
	switch m.step {
	case StepName:
		if strings.TrimSpace(m.nameInput.Value()) == "" {
			m.err = fmt.Errorf("name is required")
			return m, nil
		}
	case StepStartup:
		if strings.TrimSpace(m.startupInput.Value()) == "" {
			m.err = fmt.Errorf("startup command is required")
			return m, nil
		}
	case StepLimits:
		if _, err := m.request(); err != nil {
			m.err = err
			return m, nil
		}
	case StepConfirm:
		req, err := m.request()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.creating = true
		return m, tea.Batch(m.spinner.Tick, m.create(req))
	}
	m.step++
	cmd := m.focusStep()
	return m, cmd
}

func (m *WizardModel) focusStep() tea.Cmd {
	m.nameInput.Blur()
	m.startupInput.Blur()
	for i := range m.limitInputs {
		m.limitInputs[i].Blur()
	}
	switch m.step {
	case StepName:
		return m.nameInput.Focus()
	case StepStartup:
		return m.startupInput.Focus()
	case StepLimits:
		return m.limitInputs[m.focused].Focus()
	}
	return nil
}

func (m WizardModel) View() string {
	title := headerStyle.Width(m.width).Render("CREATE SERVER")

	var body string
	switch m.step {
	case StepName:
		body = "Server name\n\n" + m.nameInput.View()
	case StepStartup:
		body = "Startup command\n\n" + m.startupInput.View()
	case StepLimits:
		labels := []string{"Memory", "Disk", "CPU"}
		lines := make([]string, len(m.limitInputs))
		for i, in := range m.limitInputs {
			lines[i] = fmt.Sprintf("%-7s %s", labels[i], in.View())
		}
		body = "Limits\n\n" + strings.Join(lines, "\n")
	case StepConfirm:
		req, _ := m.request()
		body = fmt.Sprintf("Name:    %s\nStartup: %s\nMemory:  %s\nDisk:    %s\nCPU:     %s\n\nPress enter to create.",
			req.Name, req.Startup,
			limitText(req.Limits.Memory, "MB"), limitText(req.Limits.Disk, "MB"), limitText(int64(req.Limits.CPU), "%"))
	}

	if m.creating {
		body += "\n\n" + m.spinner.View() + " Creating server..."
	}
	if m.err != nil {
		body += "\n\n" + alarmStyle.Render(m.err.Error())
	}

	box := baseStyle.Width(m.width - 4).Render(body)
	help := footerStyle.Width(m.width - 4).Render(keyHelp("enter", "next", "tab", "field", "esc", "back"))
	return lipgloss.JoinVertical(lipgloss.Center, title, box, help)
}

func limitText(v int64, unit string) string {
	if v == 0 {
		return "Unlimited"
	}
	return fmt.Sprintf("%d %s", v, unit)
}
