// Package runner drives an external coding agent and decodes its
// newline-delimited JSON output into typed events.
package runner

import (
	"context"

	"github.com/jumppad-labs/spektacular/internal/config"
)

// RunOptions describes a single invocation of the agent
type RunOptions struct {
	Prompt string
	Agent  config.AgentConfig
	// SessionID resumes an existing agent session when non-empty.
	SessionID string
	// WorkDir is the process working directory. Empty means the current directory.
	WorkDir string
	// Transcript records the raw stream when set.
	Transcript *Transcript
}

// Runner starts one agent invocation per call to Run. The events channel is
// closed when the agent's stdout reaches end of stream; after that the error
// channel yields at most one error (a *ProcessError for a failed process) and
// is closed. Callers must drain events before reading the error.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) (<-chan Event, <-chan error)
}
