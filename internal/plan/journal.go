package plan

// Journal records the lifecycle of plan runs. Implementations must be safe
// to call from the session goroutine; errors are logged and never fail a run.
type Journal interface {
	RunStarted(runID, spec string) error
	SessionCaptured(runID, sessionID string) error
	TurnStarted(runID string, turn int) error
	RunFinished(runID string, outcome Outcome) error
}

// Outcome is the terminal state of a run as recorded in a Journal
type Outcome struct {
	State   string // "completed" or "failed"
	PlanDir string
	Error   string
}

type nopJournal struct{}

func (nopJournal) RunStarted(string, string) error      { return nil }
func (nopJournal) SessionCaptured(string, string) error { return nil }
func (nopJournal) TurnStarted(string, int) error        { return nil }
func (nopJournal) RunFinished(string, Outcome) error    { return nil }
