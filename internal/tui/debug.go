package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jumppad-labs/spektacular/internal/plan"
)

// DebugPanel shows the raw session message stream
type DebugPanel struct {
	enabled bool
	lines   []string
	buffer  int
	now     func() time.Time
}

// NewDebugPanel creates a new debug panel
func NewDebugPanel(enabled bool) DebugPanel {
	return DebugPanel{
		enabled: enabled,
		buffer:  100, // Keep last 100 debug lines
		now:     time.Now,
	}
}

// IsEnabled returns whether debug mode is enabled
func (d *DebugPanel) IsEnabled() bool {
	return d.enabled
}

// Toggle flips the panel on or off. Lines are recorded either way.
func (d *DebugPanel) Toggle() {
	d.enabled = !d.enabled
}

// AddEvent adds a debug event (formats event type prominently)
func (d *DebugPanel) AddEvent(eventType string, details string) {
	line := "[" + eventType + "]"
	if details != "" {
		line += " " + details
	}
	d.lines = append(d.lines, d.now().Format("15:04:05.000")+" "+line)
	if len(d.lines) > d.buffer {
		d.lines = d.lines[len(d.lines)-d.buffer:]
	}
}

// AddMessage records a session message
func (d *DebugPanel) AddMessage(msg plan.Message) {
	switch m := msg.(type) {
	case plan.TurnStartMsg:
		d.AddEvent("turn_start", fmt.Sprintf("turn=%d", m.Turn))
	case plan.TurnEndMsg:
		d.AddEvent("turn_end", fmt.Sprintf("turn=%d", m.Turn))
	case plan.OutputMsg:
		d.AddEvent("output", fmt.Sprintf("%d chars", len(m.Text)))
	case plan.ToolMsg:
		d.AddEvent("tool", m.Text)
	case plan.QuestionsMsg:
		d.AddEvent("questions", fmt.Sprintf("count=%d", len(m.Questions)))
	case plan.SessionMsg:
		d.AddEvent("session", m.SessionID)
	case plan.StatusMsg:
		d.AddEvent("status", m.Text)
	case plan.CompletedMsg:
		d.AddEvent("completed", m.PlanPath)
	case plan.FailedMsg:
		d.AddEvent("failed", fmt.Sprint(m.Err))
	default:
		d.AddEvent(fmt.Sprintf("%T", msg), "")
	}
}

// Lines returns the current debug lines
func (d *DebugPanel) Lines() []string {
	return d.lines
}

// Render renders the debug panel
func (d *DebugPanel) Render(width, height int) string {
	if !d.enabled {
		return ""
	}

	title := lipgloss.NewStyle().
		Foreground(ColorYellow).
		Bold(true).
		Render("DEBUG")

	// Calculate available height for content (minus title and borders)
	contentHeight := height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}

	var lines []string
	startIdx := 0
	if len(d.lines) > contentHeight {
		startIdx = len(d.lines) - contentHeight
	}
	maxLen := width - 4
	if maxLen < 10 {
		maxLen = 10
	}
	for _, line := range d.lines[startIdx:] {
		if len(line) > maxLen {
			line = line[:maxLen-3] + "..."
		}
		lines = append(lines, line)
	}
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}

	return lipgloss.NewStyle().
		Width(width-2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1).
		Render(title + "\n" + strings.Join(lines, "\n"))
}
