package plan

import "github.com/jumppad-labs/spektacular/internal/runner"

// Message is sent from a running Session to the foreground loop. It is one of
// the *Msg types in this file.
type Message interface {
	planMessage()
}

// TurnStartMsg is sent before each agent invocation
type TurnStartMsg struct {
	Turn int
}

// OutputMsg carries agent text with question markers removed
type OutputMsg struct {
	Text string
}

// ToolMsg carries a one-line summary of a tool the agent used
type ToolMsg struct {
	Text string
}

// QuestionsMsg carries a batch of questions in detection order
type QuestionsMsg struct {
	Questions []runner.Question
}

// SessionMsg is sent once, when the agent session id is first seen
type SessionMsg struct {
	SessionID string
}

// StatusMsg is a passive status update that does not go to the output log
type StatusMsg struct {
	Text string
}

// TurnEndMsg is sent when a turn that staged questions has finished
// streaming. The session then waits for a continuation.
type TurnEndMsg struct {
	Turn int
}

// CompletedMsg reports a successful run and where the plan was written
type CompletedMsg struct {
	PlanDir  string
	PlanPath string
}

// FailedMsg reports a terminal failure
type FailedMsg struct {
	Err error
}

func (TurnStartMsg) planMessage() {}
func (OutputMsg) planMessage()    {}
func (ToolMsg) planMessage()      {}
func (QuestionsMsg) planMessage() {}
func (SessionMsg) planMessage()   {}
func (StatusMsg) planMessage()    {}
func (TurnEndMsg) planMessage()   {}
func (CompletedMsg) planMessage() {}
func (FailedMsg) planMessage()    {}
