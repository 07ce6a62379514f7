// Package tui is an interactive surface over the planner: it runs the solve
// in the background behind a spinner and presents the resulting ledger in a
// scrollable view.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drawplan/drawplan/internal/domain"
	"github.com/drawplan/drawplan/internal/output"
	"github.com/drawplan/drawplan/internal/planner"
)

// PlanReadyMsg delivers a finished solve to the update loop.
type PlanReadyMsg struct {
	Plan *domain.Plan
}

// ErrorMsg delivers a failed solve.
type ErrorMsg struct {
	Err error
}

// Model is the application state: solving until the plan arrives, then
// viewing.
type Model struct {
	config  *domain.Configuration
	request planner.Request

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	plan *domain.Plan
	err  error

	width  int
	height int
}

// NewModel prepares the TUI for one solve of the given configuration.
func NewModel(config *domain.Configuration, request planner.Request) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		config:  config,
		request: request,
		spinner: sp,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, solveCmd(m.config, m.request))
}

func solveCmd(config *domain.Configuration, request planner.Request) tea.Cmd {
	return func() tea.Msg {
		plan, err := planner.New(nil, nil).Plan(context.Background(), config, request)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PlanReadyMsg{Plan: plan}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case PlanReadyMsg:
		m.plan = msg.Plan
		m.resizeViewport()
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.plan == nil && m.err == nil {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resizeViewport() {
	if m.plan == nil {
		return
	}
	body, err := (output.ConsoleFormatter{}).Format(m.plan)
	if err != nil {
		m.err = err
		return
	}
	height := m.height - 4
	if height < 4 {
		height = 4
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, height)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = height
	}
	m.viewport.SetContent(string(body))
}

func (m Model) View() string {
	title := TitleStyle.Render("drawplan")

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s\n",
			title,
			ErrorStyle.Render(m.err.Error()),
			HelpStyle.Render("q: quit"))
	}

	if m.plan == nil {
		return fmt.Sprintf("%s\n\n %s solving %s mode over %d years...\n\n%s\n",
			title,
			m.spinner.View(),
			m.request.Mode,
			m.config.Household.Years(),
			HelpStyle.Render("q: quit"))
	}

	status := StatusStyle.Render(m.plan.Status.String())
	if m.plan.Provisional() {
		status = ProvisionalStyle.Render("provisional (time limit reached)")
	}

	return fmt.Sprintf("%s  %s\n\n%s\n\n%s\n",
		title,
		status,
		m.viewport.View(),
		HelpStyle.Render("↑/↓: scroll • q: quit"))
}
