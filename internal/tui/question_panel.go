package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jumppad-labs/spektacular/internal/plan"
	"github.com/jumppad-labs/spektacular/internal/runner"
)

// AnswerSelectedMsg is emitted once when the operator picks an option.
// Index is 0-based.
type AnswerSelectedMsg struct {
	Index int
	Label string
}

// QuestionPanel shows one question with numbered options and turns a digit
// key press into an AnswerSelectedMsg.
type QuestionPanel struct {
	question runner.Question
	answered bool
	width    int
}

// NewQuestionPanel creates a panel for q
func NewQuestionPanel(q runner.Question) QuestionPanel {
	return QuestionPanel{question: q}
}

// Question returns the question shown by the panel
func (p QuestionPanel) Question() runner.Question {
	return p.question
}

// Answered reports whether an option has already been picked
func (p QuestionPanel) Answered() bool {
	return p.answered
}

// SetWidth sets the rendered width. Zero means unconstrained.
func (p QuestionPanel) SetWidth(width int) QuestionPanel {
	p.width = width
	return p
}

// Update handles digit keys. Anything else, a digit with no matching
// option, or any key after an answer was picked is ignored.
func (p QuestionPanel) Update(msg tea.Msg) (QuestionPanel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || p.answered || keyMsg.Type != tea.KeyRunes || len(keyMsg.Runes) != 1 {
		return p, nil
	}

	r := keyMsg.Runes[0]
	if r < '1' || r >= '1'+plan.SelectableOptions {
		return p, nil
	}
	index := int(r - '1')
	if index >= len(p.question.Options) {
		return p, nil
	}

	p.answered = true
	selected := AnswerSelectedMsg{Index: index, Label: p.question.Options[index].Label}
	return p, func() tea.Msg { return selected }
}

// OptionLines returns the option list as shown, "1. Label — Description",
// or just "1. Label" for an option without a description.
func (p QuestionPanel) OptionLines() []string {
	lines := make([]string, len(p.question.Options))
	for i, opt := range p.question.Options {
		line := strconv.Itoa(i+1) + ". " + opt.Label
		if opt.Description != "" {
			line += " — " + opt.Description
		}
		lines[i] = line
	}
	return lines
}

// View renders the panel
func (p QuestionPanel) View() string {
	var content strings.Builder

	if p.question.Header != "" {
		content.WriteString(QuestionHeaderStyle.Render("❓ " + p.question.Header))
		content.WriteString("\n\n")
	}
	content.WriteString(OptionStyle.Render(p.question.Question))
	content.WriteString("\n\n")

	for _, line := range p.OptionLines() {
		content.WriteString(OptionStyle.Render(line))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(DimStyle.Render("press a number to select"))

	style := QuestionPanelStyle
	if p.width > 0 {
		style = style.Width(p.width)
	}
	return style.Render(content.String())
}
