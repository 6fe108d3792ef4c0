package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedRunner is returned by New when no runner is registered for
// the configured agent command.
var ErrUnsupportedRunner = errors.New("unsupported runner")

// ProcessError reports an agent invocation that could not be started,
// exited with a nonzero code or was terminated by a signal. It is delivered
// only after the event stream of the invocation has been fully drained.
type ProcessError struct {
	Command string
	// Started is false when the process never ran. Stderr is empty then.
	Started bool
	// ExitCode is -1 when the process did not exit normally.
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if !e.Started && e.Cause != nil {
		return fmt.Sprintf("agent process %q failed to start: %v", e.Command, e.Cause)
	}

	var msg string
	if e.ExitCode < 0 && e.Cause != nil {
		msg = fmt.Sprintf("agent process %q terminated: %v", e.Command, e.Cause)
	} else {
		msg = fmt.Sprintf("agent process %q exited with code %d", e.Command, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}
