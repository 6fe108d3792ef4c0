package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jumppad-labs/spektacular/internal/runner"
)

func sampleQuestions(n int) []runner.Question {
	questions := make([]runner.Question, n)
	for i := range questions {
		questions[i] = runner.Question{
			Question: "Question " + string(rune('1'+i)),
			Header:   "Header",
			Options:  []runner.Option{{Label: "Option A"}, {Label: "Option B", Description: "second"}},
		}
	}
	return questions
}

func newRunningController() (*Controller, chan string) {
	resume := make(chan string, 1)
	c := NewController(resume)
	c.Start()
	return c, resume
}

func TestController_StartsIdle(t *testing.T) {
	c := NewController(make(chan string, 1))
	require.Equal(t, StateIdle, c.State())
	c.Start()
	require.Equal(t, StateRunning, c.State())
}

func TestController_QuestionsPresentHeadFirst(t *testing.T) {
	c, _ := newRunningController()
	c.Apply(QuestionsMsg{Questions: sampleQuestions(2)})

	require.Equal(t, StateWaitingForAnswer, c.State())
	require.Equal(t, 2, c.Pending())
	q, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, "Question 1", q.Question)
}

func TestController_SelectAdvancesQueue(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(QuestionsMsg{Questions: sampleQuestions(2)})
	c.Apply(TurnEndMsg{Turn: 1})

	require.True(t, c.Select(0))
	q, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, "Question 2", q.Question)
	require.Equal(t, StateWaitingForAnswer, c.State())
	require.Len(t, resume, 0)
	require.Contains(t, c.Lines(), "> Option A")
}

func TestController_BatchFlushesOneContinuation(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(QuestionsMsg{Questions: sampleQuestions(2)})
	c.Apply(TurnEndMsg{Turn: 1})

	require.True(t, c.Select(0))
	require.True(t, c.Select(1))

	require.Len(t, resume, 1)
	prompt := <-resume
	require.Contains(t, prompt, "Question 1")
	require.Contains(t, prompt, "Option A")
	require.Contains(t, prompt, "Question 2")
	require.Contains(t, prompt, "Option B")
	require.Equal(t, StateRunning, c.State())
	require.Empty(t, c.answers)
}

func TestController_WaitsForTurnEndBeforeFlushing(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(QuestionsMsg{Questions: sampleQuestions(1)})

	require.True(t, c.Select(0))
	require.Len(t, resume, 0)
	require.Len(t, c.answers, 1)

	c.Apply(TurnEndMsg{Turn: 1})
	require.Len(t, resume, 1)
	require.Equal(t, StateRunning, c.State())
	require.Empty(t, c.answers)
}

func TestController_SecondBatchInSameTurnJoinsContinuation(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(QuestionsMsg{Questions: sampleQuestions(1)})
	require.True(t, c.Select(0))

	c.Apply(QuestionsMsg{Questions: []runner.Question{{Question: "Later", Options: []runner.Option{{Label: "Yes"}}}}})
	require.True(t, c.Select(0))
	require.Len(t, resume, 0)

	c.Apply(TurnEndMsg{Turn: 1})
	require.Len(t, resume, 1)
	prompt := <-resume
	require.Contains(t, prompt, "Question 1")
	require.Contains(t, prompt, "Later")
}

func TestController_OutOfRangeSelectIgnored(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(QuestionsMsg{Questions: sampleQuestions(1)})

	require.False(t, c.Select(5))
	require.False(t, c.Select(-1))
	require.Equal(t, 1, c.Pending())
	require.Empty(t, c.answers)
	require.Len(t, resume, 0)
	require.Equal(t, StateWaitingForAnswer, c.State())
}

func TestController_SingleOptionRejectsSecondChoice(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(QuestionsMsg{Questions: []runner.Question{{Question: "Proceed?", Options: []runner.Option{{Label: "Yes"}}}}})

	require.False(t, c.Select(1))
	require.Equal(t, 1, c.Pending())
	require.Empty(t, c.answers)
	require.Len(t, resume, 0)
	require.Equal(t, StateWaitingForAnswer, c.State())
}

func TestController_StraySelectIsNoop(t *testing.T) {
	c, resume := newRunningController()

	require.False(t, c.Select(0))
	require.Equal(t, 0, c.Pending())
	require.Empty(t, c.answers)
	require.Len(t, resume, 0)
	require.Equal(t, StateRunning, c.State())
}

func TestController_OutputAndToolsAppendToLog(t *testing.T) {
	c, _ := newRunningController()
	c.Apply(OutputMsg{Text: "hello"})
	c.Apply(ToolMsg{Text: "● Read main.go"})
	c.Apply(StatusMsg{Text: "agent initialized"})

	require.Equal(t, []string{"hello", "● Read main.go"}, c.Lines())
	require.Equal(t, StateRunning, c.State())
}

func TestController_SessionIDKeptOnce(t *testing.T) {
	c, _ := newRunningController()
	c.Apply(SessionMsg{SessionID: "first"})
	c.Apply(SessionMsg{SessionID: "second"})
	require.Equal(t, "first", c.SessionID())
}

func TestController_Completed(t *testing.T) {
	c, _ := newRunningController()
	c.Apply(CompletedMsg{PlanDir: "/p", PlanPath: "/p/plan.md"})

	require.Equal(t, StateCompleted, c.State())
	require.Equal(t, "/p", c.PlanDir())
	require.Equal(t, "/p/plan.md", c.PlanPath())
}

func TestController_TerminalIgnoresMessages(t *testing.T) {
	c, resume := newRunningController()
	c.Apply(FailedMsg{Err: errors.New("boom")})
	logLen := len(c.Lines())

	c.Apply(OutputMsg{Text: "late"})
	c.Apply(QuestionsMsg{Questions: sampleQuestions(1)})
	c.Apply(CompletedMsg{PlanDir: "/p"})

	require.Equal(t, StateFailed, c.State())
	require.Len(t, c.Lines(), logLen)
	require.False(t, c.Select(0))
	require.Len(t, resume, 0)
	require.Equal(t, "boom", c.Failure())
}

func TestController_Status(t *testing.T) {
	c := NewController(make(chan string, 1))
	require.Equal(t, "idle", c.Status())

	c.Start()
	c.Apply(TurnStartMsg{Turn: 1})
	require.Equal(t, "running · turn 1", c.Status())

	c.Apply(SessionMsg{SessionID: "0123456789abcdef"})
	c.Apply(StatusMsg{Text: "agent initialized"})
	require.Equal(t, "running: agent initialized · session 01234567 · turn 1", c.Status())

	c.Apply(QuestionsMsg{Questions: sampleQuestions(2)})
	require.Equal(t, "waiting for answer (2 pending) · session 01234567 · turn 1", c.Status())

	require.True(t, c.Select(0))
	require.True(t, c.Select(1))
	require.Equal(t, StateWaitingForAnswer, c.State())
	require.Equal(t, "sending answers · session 01234567 · turn 1", c.Status())

	c.Apply(FailedMsg{Err: errors.New("boom")})
	require.Contains(t, c.Status(), "error: boom")
}

func TestController_LogKinds(t *testing.T) {
	c, _ := newRunningController()
	c.Apply(OutputMsg{Text: "hello"})
	c.Apply(ToolMsg{Text: "● Bash ls"})
	c.Apply(QuestionsMsg{Questions: sampleQuestions(1)})
	c.Select(0)
	c.Apply(TurnEndMsg{Turn: 1})
	c.Apply(CompletedMsg{PlanDir: "/p", PlanPath: "/p/plan.md"})

	var kinds []LogKind
	for _, e := range c.Log() {
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []LogKind{LogOutput, LogTool, LogAnswer, LogSuccess}, kinds)
}
