package plan

import (
	"context"
	"errors"
	"sync"

	"github.com/jumppad-labs/spektacular/internal/runner"
)

// fakeTurn is the scripted output of one agent invocation
type fakeTurn struct {
	lines []string
	err   error
}

// fakeRunner replays scripted turns and records every invocation
type fakeRunner struct {
	mu    sync.Mutex
	turns []fakeTurn
	calls []runner.RunOptions
}

func newFakeRunner(turns ...fakeTurn) *fakeRunner {
	return &fakeRunner{turns: turns}
}

func (f *fakeRunner) Run(_ context.Context, opts runner.RunOptions) (<-chan runner.Event, <-chan error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	idx := len(f.calls) - 1
	f.mu.Unlock()

	errc := make(chan error, 1)
	if idx >= len(f.turns) {
		events := make(chan runner.Event)
		close(events)
		errc <- errors.New("unexpected agent invocation")
		close(errc)
		return events, errc
	}

	turn := f.turns[idx]
	events := make(chan runner.Event, len(turn.lines))
	for _, line := range turn.lines {
		if ev, err := runner.Decode([]byte(line)); err == nil {
			events <- ev
		}
	}
	close(events)
	if turn.err != nil {
		errc <- turn.err
	}
	close(errc)
	return events, errc
}

func (f *fakeRunner) Calls() []runner.RunOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.RunOptions(nil), f.calls...)
}

type journalCall struct {
	method string
	args   []any
}

type fakeJournal struct {
	mu    sync.Mutex
	calls []journalCall
}

func (j *fakeJournal) record(method string, args ...any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, journalCall{method: method, args: args})
	return nil
}

func (j *fakeJournal) RunStarted(runID, spec string) error {
	return j.record("RunStarted", runID, spec)
}

func (j *fakeJournal) SessionCaptured(runID, sessionID string) error {
	return j.record("SessionCaptured", runID, sessionID)
}

func (j *fakeJournal) TurnStarted(runID string, turn int) error {
	return j.record("TurnStarted", runID, turn)
}

func (j *fakeJournal) RunFinished(runID string, outcome Outcome) error {
	return j.record("RunFinished", runID, outcome)
}

func (j *fakeJournal) Methods() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var methods []string
	for _, c := range j.calls {
		methods = append(methods, c.method)
	}
	return methods
}
