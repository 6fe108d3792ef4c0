package plan

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jumppad-labs/spektacular/internal/runner"
)

const twoQuestionMarker = `<!--QUESTION:{\"questions\":[` +
	`{\"question\":\"Which DB?\",\"header\":\"Storage\",\"options\":[{\"label\":\"SQLite\"},{\"label\":\"Postgres\"}]},` +
	`{\"question\":\"Which auth?\",\"options\":[{\"label\":\"OAuth\"},{\"label\":\"Password\"}]}]}-->`

func assistantLine(sessionID, text string) string {
	return `{"type":"assistant","session_id":"` + sessionID + `","message":{"content":[{"type":"text","text":"` + text + `"}]}}`
}

func resultLine(sessionID, result string, isError bool) string {
	flag := "false"
	if isError {
		flag = "true"
	}
	return `{"type":"result","session_id":"` + sessionID + `","is_error":` + flag + `,"result":"` + result + `"}`
}

// drive runs a session against r with a controller in the foreground, as the
// TUI does, answering every presented question with choose.
func drive(t *testing.T, r runner.Runner, opts SessionOptions, choose func(runner.Question) int) *Controller {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resume := make(chan string, 1)
	out := make(chan Message)
	ctrl := NewController(resume)
	ctrl.Start()

	go NewSession(r, opts).Run(ctx, out, resume)

	for msg := range out {
		ctrl.Apply(msg)
		for {
			q, ok := ctrl.Current()
			if !ok {
				break
			}
			require.True(t, ctrl.Select(choose(q)))
		}
	}
	require.NoError(t, ctx.Err(), "session did not finish")
	return ctrl
}

func first(runner.Question) int { return 0 }

func TestSession_HelloDoneCompletes(t *testing.T) {
	planDir := filepath.Join(t.TempDir(), "plans", "login")
	r := newFakeRunner(fakeTurn{lines: []string{
		assistantLine("s1", "hello"),
		resultLine("s1", "DONE", false),
	}})

	ctrl := drive(t, r, SessionOptions{Prompt: "plan it", PlanDir: planDir}, first)

	require.Equal(t, StateCompleted, ctrl.State())
	require.Contains(t, ctrl.Lines(), "hello")

	data, err := os.ReadFile(filepath.Join(planDir, "plan.md"))
	require.NoError(t, err)
	require.Equal(t, "DONE", string(data))
	require.Equal(t, filepath.Join(planDir, "plan.md"), ctrl.PlanPath())

	calls := r.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "plan it", calls[0].Prompt)
	require.Equal(t, "", calls[0].SessionID)
}

func TestSession_ProcessErrorFails(t *testing.T) {
	planDir := filepath.Join(t.TempDir(), "plan")
	r := newFakeRunner(fakeTurn{
		lines: []string{`{"type":"system","session_id":"s1"}`},
		err:   &runner.ProcessError{Command: "claude", ExitCode: 1, Stderr: "boom"},
	})

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: planDir}, first)

	require.Equal(t, StateFailed, ctrl.State())
	require.Contains(t, ctrl.Failure(), "boom")
	require.NoFileExists(t, filepath.Join(planDir, "plan.md"))
}

func TestSession_ProcessErrorWinsOverResult(t *testing.T) {
	planDir := filepath.Join(t.TempDir(), "plan")
	r := newFakeRunner(fakeTurn{
		lines: []string{resultLine("s1", "DONE", false)},
		err:   &runner.ProcessError{Command: "claude", ExitCode: 1, Stderr: "boom"},
	})

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: planDir}, first)
	require.Equal(t, StateFailed, ctrl.State())
	require.NoFileExists(t, filepath.Join(planDir, "plan.md"))
}

func TestSession_ErrorResultFails(t *testing.T) {
	r := newFakeRunner(fakeTurn{lines: []string{resultLine("s1", "rate limited", true)}})

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: t.TempDir()}, first)
	require.Equal(t, StateFailed, ctrl.State())
	require.Equal(t, "rate limited", ctrl.Failure())
}

func TestSession_NoResultFails(t *testing.T) {
	r := newFakeRunner(fakeTurn{lines: []string{assistantLine("s1", "thinking")}})

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: t.TempDir()}, first)
	require.Equal(t, StateFailed, ctrl.State())
	require.ErrorIs(t, ctrl.Err(), ErrNoResult)
}

func TestSession_QuestionBatchResumesOnce(t *testing.T) {
	planDir := t.TempDir()
	r := newFakeRunner(
		fakeTurn{lines: []string{
			`{"type":"system","subtype":"init","session_id":"sess-1"}`,
			assistantLine("sess-1", "Some context "+twoQuestionMarker),
		}},
		fakeTurn{lines: []string{resultLine("sess-1", "final plan", false)}},
	)

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: planDir}, func(q runner.Question) int {
		if q.Question == "Which auth?" {
			return 1
		}
		return 0
	})

	require.Equal(t, StateCompleted, ctrl.State())
	require.Contains(t, ctrl.Lines(), "Some context")
	require.Contains(t, ctrl.Lines(), "> SQLite")
	require.Contains(t, ctrl.Lines(), "> Password")

	calls := r.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "sess-1", calls[1].SessionID)
	require.Contains(t, calls[1].Prompt, "Which DB?")
	require.Contains(t, calls[1].Prompt, "SQLite")
	require.Contains(t, calls[1].Prompt, "Which auth?")
	require.Contains(t, calls[1].Prompt, "Password")
}

func TestSession_ResultWithQuestionsIsDeferred(t *testing.T) {
	planDir := t.TempDir()
	r := newFakeRunner(
		fakeTurn{lines: []string{
			assistantLine("s1", twoQuestionMarker),
			resultLine("s1", "early", false),
		}},
		fakeTurn{lines: []string{resultLine("s1", "final", false)}},
	)

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: planDir}, first)
	require.Equal(t, StateCompleted, ctrl.State())

	data, err := os.ReadFile(filepath.Join(planDir, "plan.md"))
	require.NoError(t, err)
	require.Equal(t, "final", string(data))
	require.Len(t, r.Calls(), 2)
}

func TestSession_SessionIDNeverChanges(t *testing.T) {
	marker := `<!--QUESTION:{\"questions\":[{\"question\":\"Q\",\"options\":[{\"label\":\"A\"}]}]}-->`
	r := newFakeRunner(
		fakeTurn{lines: []string{
			assistantLine("first", marker),
			`{"type":"system","session_id":"second"}`,
		}},
		fakeTurn{lines: []string{resultLine("third", "ok", false)}},
	)

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: t.TempDir()}, first)
	require.Equal(t, StateCompleted, ctrl.State())
	require.Equal(t, "first", ctrl.SessionID())
	require.Equal(t, "first", r.Calls()[1].SessionID)
}

func TestSession_ToolUsesGoToLog(t *testing.T) {
	r := newFakeRunner(fakeTurn{lines: []string{
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read","input":{"file_path":"main.go"}}]}}`,
		resultLine("s1", "ok", false),
	}})

	ctrl := drive(t, r, SessionOptions{Prompt: "p", PlanDir: t.TempDir()}, first)
	require.Contains(t, ctrl.Lines(), "● Read main.go")
}

func TestSession_ReportsToJournal(t *testing.T) {
	journal := &fakeJournal{}
	r := newFakeRunner(fakeTurn{lines: []string{
		assistantLine("s1", "hello"),
		resultLine("s1", "DONE", false),
	}})

	drive(t, r, SessionOptions{RunID: "run-1", Spec: "login.md", Prompt: "p", PlanDir: t.TempDir(), Journal: journal}, first)

	require.Equal(t, []string{"RunStarted", "TurnStarted", "SessionCaptured", "RunFinished"}, journal.Methods())
	last := journal.calls[len(journal.calls)-1]
	require.Equal(t, "completed", last.args[1].(Outcome).State)
}

func TestSession_CancelWhileWaitingForAnswers(t *testing.T) {
	r := newFakeRunner(fakeTurn{lines: []string{assistantLine("s1", twoQuestionMarker)}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Message, 16)
	done := make(chan struct{})
	go func() {
		NewSession(r, SessionOptions{Prompt: "p", PlanDir: t.TempDir()}).Run(ctx, out, make(chan string))
		close(done)
	}()

	for msg := range out {
		if _, ok := msg.(TurnEndMsg); ok {
			cancel()
			break
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after cancel")
	}
	require.Len(t, r.Calls(), 1)
}

func TestSession_LogsQuestionsThatCannotBeAnswered(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	options := make([]string, SelectableOptions+1)
	for i := range options {
		options[i] = `{\"label\":\"opt` + string(rune('a'+i)) + `\"}`
	}
	marker := `<!--QUESTION:{\"questions\":[` +
		`{\"question\":\"Free text?\"},` +
		`{\"question\":\"Too many?\",\"options\":[` + strings.Join(options, ",") + `]}]}-->`
	ev, err := runner.Decode([]byte(assistantLine("s1", marker)))
	require.NoError(t, err)

	out := make(chan Message, 4)
	s := NewSession(newFakeRunner(), SessionOptions{Logger: logger})
	require.Equal(t, 2, s.handleAssistant(context.Background(), ev.(*runner.AssistantEvent), out))

	require.Contains(t, logs.String(), "question has no options and cannot be answered")
	require.Contains(t, logs.String(), "question has options beyond the number keys")
	require.Contains(t, logs.String(), "options=10")
}
