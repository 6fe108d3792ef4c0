// Package tui is the terminal interface of a plan run.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jumppad-labs/spektacular/internal/plan"
)

const debugPanelHeight = 10

// planBatchMsg carries session messages that arrived together
type planBatchMsg struct {
	msgs []plan.Message
}

// sessionClosedMsg is sent once the session has closed its message channel
type sessionClosedMsg struct{}

// Options configures the plan view
type Options struct {
	// SpecName is shown in the header.
	SpecName string
	// Debug shows the message stream panel from the start.
	Debug bool
	// Cancel stops the session when the operator quits.
	Cancel context.CancelFunc
}

// Model is the root Bubble Tea model of a plan run. It owns the controller;
// the session goroutine only reaches it through the message channel.
type Model struct {
	// Terminal dimensions
	width  int
	height int
	ready  bool

	ctrl     *plan.Controller
	messages <-chan plan.Message
	cancel   context.CancelFunc
	closed   bool

	specName  string
	startTime time.Time

	panel    *QuestionPanel
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	showHelp bool
	debug    DebugPanel
	keys     KeyMap
}

// NewModel creates the plan view and starts the controller
func NewModel(ctrl *plan.Controller, messages <-chan plan.Message, opts Options) Model {
	ctrl.Start()

	cancel := opts.Cancel
	if cancel == nil {
		cancel = func() {}
	}

	return Model{
		ctrl:      ctrl,
		messages:  messages,
		cancel:    cancel,
		specName:  opts.SpecName,
		startTime: time.Now(),
		viewport:  viewport.New(80, 20),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorYellow)),
		),
		help:  help.New(),
		debug: NewDebugPanel(opts.Debug),
		keys:  DefaultKeyMap(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForMessage(m.messages))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.syncPanel()
		m.layout()
		m.refresh()

	case planBatchMsg:
		for _, pm := range msg.msgs {
			m.ctrl.Apply(pm)
			m.debug.AddMessage(pm)
		}
		m.syncPanel()
		m.layout()
		m.refresh()
		cmds = append(cmds, waitForMessage(m.messages))

	case sessionClosedMsg:
		m.closed = true

	case AnswerSelectedMsg:
		if m.panel == nil {
			return m, nil
		}
		m.ctrl.Select(msg.Index)
		m.panel = nil
		m.syncPanel()
		m.layout()
		m.refresh()

	case spinner.TickMsg:
		if !m.ctrl.State().Terminal() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Interrupt), key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Debug):
			m.debug.Toggle()
			m.layout()
			return m, nil
		case key.Matches(msg, m.keys.Home):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.End):
			m.viewport.GotoBottom()
			return m, nil
		}

		if m.panel != nil {
			panel, cmd := m.panel.Update(msg)
			m.panel = &panel
			if cmd != nil {
				return m, cmd
			}
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// Controller returns the controller driven by the model
func (m Model) Controller() *plan.Controller {
	return m.ctrl
}

// syncPanel presents the head of the question queue when no panel is shown
func (m *Model) syncPanel() {
	if m.ctrl.State().Terminal() {
		m.panel = nil
		return
	}
	if m.panel != nil {
		*m.panel = m.panel.SetWidth(m.panelWidth())
		return
	}
	if q, ok := m.ctrl.Current(); ok {
		panel := NewQuestionPanel(q).SetWidth(m.panelWidth())
		m.panel = &panel
	}
}

func (m Model) panelWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(m.width-4, 20)
}

// layout sizes the viewport to the space left by the header, question
// panel, debug panel and status bar.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	used := 1 + 1 + 3 // header, status bar, output title and borders
	if m.panel != nil {
		used += lipgloss.Height(m.panel.View())
	}
	if m.debug.IsEnabled() {
		used += debugPanelHeight
	}
	m.viewport.Width = max(m.width-4, 10)
	m.viewport.Height = max(m.height-used, 1)
}

// refresh re-renders the log into the viewport and follows the tail
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

// waitForMessage blocks for the next session message, then drains whatever
// else is immediately available so bursts render as one update.
func waitForMessage(messages <-chan plan.Message) tea.Cmd {
	return func() tea.Msg {
		if messages == nil {
			return nil
		}

		msg, ok := <-messages
		if !ok {
			return sessionClosedMsg{}
		}
		batch := []plan.Message{msg}

		for {
			select {
			case next, ok := <-messages:
				if !ok {
					// The next wait reports the close.
					return planBatchMsg{msgs: batch}
				}
				batch = append(batch, next)
			default:
				return planBatchMsg{msgs: batch}
			}
		}
	}
}

// View renders the plan view
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.helpView()
	}

	sections := []string{m.renderHeader(), m.renderOutput()}
	if m.panel != nil {
		sections = append(sections, m.panel.View())
	}
	if m.debug.IsEnabled() {
		sections = append(sections, m.debug.Render(m.width, debugPanelHeight))
	}
	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("spektacular")
	if m.specName != "" {
		title += DimStyle.Render(" plan · " + m.specName)
	}
	return title
}

func (m Model) renderOutput() string {
	title := OutputHeaderStyle.Render("OUTPUT")
	if total := len(m.ctrl.Log()); total > 0 && !m.viewport.AtBottom() {
		title += DimStyle.Render(fmt.Sprintf(" %.0f%%", m.viewport.ScrollPercent()*100))
	}

	content := m.viewport.View()
	if len(m.ctrl.Log()) == 0 {
		content = DimStyle.Render("Waiting for the agent...")
	}

	return OutputStyle.
		Width(max(m.width-2, 10)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

// renderLog renders the controller log with block-level styling
func (m Model) renderLog() string {
	width := max(m.viewport.Width-2, 20)

	var sb strings.Builder
	for _, entry := range m.ctrl.Log() {
		text := strings.TrimRight(entry.Text, "\n")
		switch entry.Kind {
		case plan.LogTool:
			sb.WriteString(ToolCallStyle.Width(width).Render(ToolNameStyle.Render(text)))
		case plan.LogAnswer:
			sb.WriteString(AnswerStyle.Width(width).Render(AnswerTextStyle.Render(text)))
		case plan.LogSuccess:
			sb.WriteString(SuccessStyle.Width(width).Render("✓ " + text))
		case plan.LogError:
			sb.WriteString(ErrorStyle.Width(width).Render("✗ " + text))
		default:
			sb.WriteString(AssistantStyle.Width(width).Render(
				lipgloss.NewStyle().Foreground(ColorFgPrimary).Render(text),
			))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	var state string
	switch m.ctrl.State() {
	case plan.StateRunning:
		state = m.spinner.View() + " " + StatusRunningStyle.Render("Running")
	case plan.StateWaitingForAnswer:
		state = StatusWaitingStyle.Render("? Waiting for answer")
	case plan.StateCompleted:
		state = SuccessStyle.Render("✓ Done")
	case plan.StateFailed:
		state = ErrorStyle.Render("✗ Error")
	default:
		state = StatusIdleStyle.Render("○ Idle")
	}

	elapsed := time.Since(m.startTime).Round(time.Second)
	detail := DimStyle.Render(" │ " + m.ctrl.Status() + " │ " + elapsed.String() + " │ ")

	return StatusBarStyle.Render(state + detail + m.help.ShortHelpView(m.keys.ShortHelp()))
}

// helpView renders the help overlay
func (m Model) helpView() string {
	title := HelpTitleStyle.Render("Keyboard Shortcuts")
	return HelpStyle.Render(title + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()))
}
