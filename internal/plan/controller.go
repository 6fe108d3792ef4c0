package plan

import (
	"fmt"
	"strings"

	"github.com/jumppad-labs/spektacular/internal/runner"
)

// State is the coarse state of a plan run
type State int

const (
	StateIdle State = iota
	StateRunning
	StateWaitingForAnswer
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateWaitingForAnswer:
		return "waiting for answer"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further agent invocations can happen
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// LogKind classifies an output log entry for presentation
type LogKind int

const (
	LogOutput LogKind = iota
	LogTool
	LogAnswer
	LogSuccess
	LogError
)

// LogEntry is one line of the output log
type LogEntry struct {
	Kind LogKind
	Text string
}

// Controller holds the foreground state of a plan run: the pending question
// queue, the answers collected for the current batch and the output log.
// It is owned by a single loop and is not safe for concurrent use.
type Controller struct {
	state     State
	questions []runner.Question
	answers   []Answer
	// turnOpen is true while the agent turn is still streaming. Answers
	// are only flushed once it has closed.
	turnOpen bool
	resume   chan<- string

	log       []LogEntry
	status    string
	sessionID string
	turn      int
	planDir   string
	planPath  string
	err       error
}

// NewController creates a controller that hands continuation prompts to the
// session on resume. resume should be buffered so delivery never blocks.
func NewController(resume chan<- string) *Controller {
	return &Controller{resume: resume}
}

// Start moves an idle controller to running
func (c *Controller) Start() {
	if c.state != StateIdle {
		return
	}
	c.state = StateRunning
	c.turnOpen = true
}

// Apply folds a session message into the controller state
func (c *Controller) Apply(msg Message) {
	if c.state.Terminal() {
		return
	}

	switch m := msg.(type) {
	case TurnStartMsg:
		c.turn = m.Turn
		c.turnOpen = true
		c.status = ""
	case OutputMsg:
		c.appendLog(LogOutput, m.Text)
	case ToolMsg:
		c.appendLog(LogTool, m.Text)
	case StatusMsg:
		c.status = m.Text
	case SessionMsg:
		if c.sessionID == "" {
			c.sessionID = m.SessionID
		}
	case QuestionsMsg:
		if len(m.Questions) == 0 {
			return
		}
		c.questions = append(c.questions, m.Questions...)
		c.state = StateWaitingForAnswer
	case TurnEndMsg:
		c.turnOpen = false
		c.flush()
	case CompletedMsg:
		c.questions = nil
		c.answers = nil
		c.planDir = m.PlanDir
		c.planPath = m.PlanPath
		c.state = StateCompleted
		c.appendLog(LogSuccess, "Plan written to "+m.PlanPath)
	case FailedMsg:
		c.questions = nil
		c.answers = nil
		c.err = m.Err
		c.state = StateFailed
		c.appendLog(LogError, "Error: "+c.Failure())
	}
}

// Current returns the question at the head of the queue
func (c *Controller) Current() (runner.Question, bool) {
	if len(c.questions) == 0 {
		return runner.Question{}, false
	}
	return c.questions[0], true
}

// Pending returns the number of questions still waiting for an answer
func (c *Controller) Pending() int {
	return len(c.questions)
}

// Select answers the current question with the option at index (0-based).
// It reports whether the selection was accepted; a selection with no
// current question or an out-of-range index changes nothing.
func (c *Controller) Select(index int) bool {
	q, ok := c.Current()
	if !ok || index < 0 || index >= len(q.Options) {
		return false
	}

	label := q.Options[index].Label
	c.questions = c.questions[1:]
	c.answers = append(c.answers, Answer{Question: q, Label: label})
	c.appendLog(LogAnswer, "> "+label)

	if len(c.questions) == 0 {
		c.flush()
	}
	return true
}

// flush hands the collected answers to the session once the batch is fully
// answered and the agent turn has closed.
func (c *Controller) flush() {
	if len(c.questions) > 0 || len(c.answers) == 0 || c.turnOpen {
		return
	}

	prompt := ContinuationPrompt(c.answers)
	c.answers = nil
	select {
	case c.resume <- prompt:
	default:
		// The session only waits for one continuation per turn, so a full
		// channel means it already has one.
	}
	c.state = StateRunning
	c.turnOpen = true
}

// State returns the current coarse state
func (c *Controller) State() State {
	return c.state
}

// Log returns the output log. It is append-only.
func (c *Controller) Log() []LogEntry {
	return c.log
}

// Lines returns the text of every log entry
func (c *Controller) Lines() []string {
	lines := make([]string, len(c.log))
	for i, e := range c.log {
		lines[i] = e.Text
	}
	return lines
}

func (c *Controller) appendLog(kind LogKind, text string) {
	c.log = append(c.log, LogEntry{Kind: kind, Text: text})
}

// SessionID returns the agent session id, empty until known
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Turn returns the number of the current agent turn
func (c *Controller) Turn() int {
	return c.turn
}

// PlanDir returns the plan directory of a completed run
func (c *Controller) PlanDir() string {
	return c.planDir
}

// PlanPath returns the plan file of a completed run
func (c *Controller) PlanPath() string {
	return c.planPath
}

// Err returns the failure of a failed run
func (c *Controller) Err() error {
	return c.err
}

// Failure returns the failure message, empty unless the run failed
func (c *Controller) Failure() string {
	if c.err == nil {
		return ""
	}
	return c.err.Error()
}

// Status renders the coarse state with the session id once known and the
// current turn.
func (c *Controller) Status() string {
	parts := []string{c.state.String()}
	switch {
	case c.state == StateWaitingForAnswer && len(c.questions) == 0:
		parts[0] = "sending answers"
	case c.state == StateWaitingForAnswer:
		parts[0] = fmt.Sprintf("waiting for answer (%d pending)", len(c.questions))
	case c.state == StateFailed:
		parts[0] = "error: " + c.Failure()
	case c.state == StateRunning && c.status != "":
		parts[0] = "running: " + c.status
	}
	if c.sessionID != "" {
		parts = append(parts, "session "+shortID(c.sessionID))
	}
	if c.turn > 0 {
		parts = append(parts, fmt.Sprintf("turn %d", c.turn))
	}
	return strings.Join(parts, " · ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
