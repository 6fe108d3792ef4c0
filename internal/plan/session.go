// Package plan drives a multi-turn planning run: a Session talks to the
// agent in the background and a Controller holds the state the UI presents.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jumppad-labs/spektacular/internal/config"
	"github.com/jumppad-labs/spektacular/internal/runner"
)

// SelectableOptions is the number of options an operator can pick from,
// one per number key.
const SelectableOptions = 9

// ErrNoResult is reported when an agent turn ends without questions or a result
var ErrNoResult = errors.New("agent exited without a result")

// SessionOptions configures a Session
type SessionOptions struct {
	RunID   string
	Spec    string
	Prompt  string
	Agent   config.AgentConfig
	PlanDir string
	WorkDir string

	Transcript *runner.Transcript
	Journal    Journal
	Logger     *slog.Logger
}

// Session owns the agent protocol loop of one plan run
type Session struct {
	runner    runner.Runner
	opts      SessionOptions
	logger    *slog.Logger
	journal   Journal
	sessionID string
}

// NewSession creates a session that invokes r for every turn
func NewSession(r runner.Runner, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	journal := opts.Journal
	if journal == nil {
		journal = nopJournal{}
	}
	return &Session{
		runner:  r,
		opts:    opts,
		logger:  logger.With("run_id", opts.RunID),
		journal: journal,
	}
}

// SessionID returns the agent session id once captured
func (s *Session) SessionID() string {
	return s.sessionID
}

// Run executes turns until the run completes or fails, sending progress on
// out. After a turn that staged questions it blocks until a continuation
// prompt arrives on answers. out is closed when Run returns.
func (s *Session) Run(ctx context.Context, out chan<- Message, answers <-chan string) {
	defer close(out)

	if err := s.journal.RunStarted(s.opts.RunID, s.opts.Spec); err != nil {
		s.logger.Warn("journal: run started", "error", err)
	}

	prompt := s.opts.Prompt
	for turn := 1; ; turn++ {
		awaiting, err := s.runTurn(ctx, turn, prompt, out)
		if err != nil {
			s.fail(ctx, out, err)
			return
		}
		if !awaiting {
			return
		}

		select {
		case prompt = <-answers:
			s.logger.Debug("continuation received", "turn", turn)
		case <-ctx.Done():
			s.fail(ctx, out, ctx.Err())
			return
		}
	}
}

// runTurn performs one agent invocation. It reports whether the turn staged
// questions, in which case the run continues once they are answered.
func (s *Session) runTurn(ctx context.Context, turn int, prompt string, out chan<- Message) (bool, error) {
	if err := s.journal.TurnStarted(s.opts.RunID, turn); err != nil {
		s.logger.Warn("journal: turn started", "error", err)
	}
	s.send(ctx, out, TurnStartMsg{Turn: turn})
	s.logger.Info("agent turn started", "turn", turn, "resume", s.sessionID != "")

	events, errc := s.runner.Run(ctx, runner.RunOptions{
		Prompt:     prompt,
		Agent:      s.opts.Agent,
		SessionID:  s.sessionID,
		WorkDir:    s.opts.WorkDir,
		Transcript: s.opts.Transcript,
	})

	var result *runner.ResultEvent
	staged := 0
	for ev := range events {
		s.captureSession(ctx, ev, out)

		switch e := ev.(type) {
		case *runner.AssistantEvent:
			staged += s.handleAssistant(ctx, e, out)
		case *runner.ResultEvent:
			result = e
		case *runner.SystemEvent:
			if e.Subtype == "init" {
				s.send(ctx, out, StatusMsg{Text: "agent initialized"})
			}
		case *runner.UserEvent:
			s.send(ctx, out, StatusMsg{Text: "processing tool results"})
		default:
			s.logger.Debug("ignoring agent event", "type", ev.Type())
		}
	}

	if err := <-errc; err != nil {
		return false, err
	}

	if staged > 0 {
		if result != nil {
			s.logger.Debug("result deferred until questions are answered", "turn", turn)
		}
		s.send(ctx, out, TurnEndMsg{Turn: turn})
		return true, nil
	}

	if result == nil {
		return false, ErrNoResult
	}
	if result.IsError {
		if result.Result == "" {
			return false, errors.New("agent reported an error")
		}
		return false, errors.New(result.Result)
	}

	path, err := WritePlan(s.opts.PlanDir, result.Result)
	if err != nil {
		return false, err
	}
	s.logger.Info("plan written", "path", path, "turns", turn)
	s.finish(Outcome{State: "completed", PlanDir: s.opts.PlanDir})
	s.send(ctx, out, CompletedMsg{PlanDir: s.opts.PlanDir, PlanPath: path})
	return false, nil
}

func (s *Session) handleAssistant(ctx context.Context, e *runner.AssistantEvent, out chan<- Message) int {
	text := e.Text()
	questions := runner.DetectQuestions(text)
	if plain := runner.StripQuestions(text); plain != "" {
		s.send(ctx, out, OutputMsg{Text: plain})
	}
	for _, tool := range e.ToolUses() {
		s.send(ctx, out, ToolMsg{Text: runner.DescribeToolUse(tool)})
	}
	for _, q := range questions {
		switch {
		case len(q.Options) == 0:
			s.logger.Debug("question has no options and cannot be answered", "question", q.Question)
		case len(q.Options) > SelectableOptions:
			s.logger.Debug("question has options beyond the number keys", "question", q.Question, "options", len(q.Options))
		}
	}
	if len(questions) > 0 {
		s.logger.Debug("questions detected", "count", len(questions))
		s.send(ctx, out, QuestionsMsg{Questions: questions})
	}
	return len(questions)
}

func (s *Session) captureSession(ctx context.Context, ev runner.Event, out chan<- Message) {
	id := ev.SessionID()
	if id == "" {
		return
	}
	if s.sessionID == "" {
		s.sessionID = id
		s.logger.Info("agent session captured", "session_id", id)
		if err := s.journal.SessionCaptured(s.opts.RunID, id); err != nil {
			s.logger.Warn("journal: session captured", "error", err)
		}
		s.send(ctx, out, SessionMsg{SessionID: id})
		return
	}
	if id != s.sessionID {
		s.logger.Debug("ignoring different session id", "session_id", id, "captured", s.sessionID)
	}
}

func (s *Session) fail(ctx context.Context, out chan<- Message, err error) {
	s.logger.Error("plan run failed", "error", err)
	s.finish(Outcome{State: "failed", Error: err.Error()})
	s.send(ctx, out, FailedMsg{Err: err})
}

func (s *Session) finish(outcome Outcome) {
	if err := s.journal.RunFinished(s.opts.RunID, outcome); err != nil {
		s.logger.Warn("journal: run finished", "error", err)
	}
}

// send delivers msg unless ctx is done
func (s *Session) send(ctx context.Context, out chan<- Message, msg Message) {
	select {
	case out <- msg:
	case <-ctx.Done():
		s.logger.Debug("dropping message after cancel", "type", fmt.Sprintf("%T", msg))
	}
}
