// Package claude runs the claude CLI as a runner.Runner.
package claude

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jumppad-labs/spektacular/internal/config"
	"github.com/jumppad-labs/spektacular/internal/runner"
)

func init() {
	runner.Register("claude", func() runner.Runner { return New(nil) })
}

// Claude spawns one claude process per Run and streams its stream-json output.
type Claude struct {
	logger *slog.Logger
}

// New creates a Claude runner. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Claude {
	if logger == nil {
		logger = slog.Default()
	}
	return &Claude{logger: logger}
}

// BuildArgs returns the argument list for one invocation:
// -p <prompt> [args...] [--allowedTools a,b] [--dangerously-skip-permissions] [--resume <id>]
func BuildArgs(prompt string, agent config.AgentConfig, sessionID string) []string {
	args := []string{"-p", prompt}
	args = append(args, agent.Args...)
	if len(agent.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(agent.AllowedTools, ","))
	}
	if agent.DangerouslySkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	if sessionID != "" {
		args = append(args, "--resume", sessionID)
	}
	return args
}

// Run starts the agent and returns its decoded events. See runner.Runner.
func (c *Claude) Run(ctx context.Context, opts runner.RunOptions) (<-chan runner.Event, <-chan error) {
	events := make(chan runner.Event)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		if err := c.run(ctx, opts, events); err != nil {
			errc <- err
		}
	}()

	return events, errc
}

func (c *Claude) run(ctx context.Context, opts runner.RunOptions, events chan<- runner.Event) error {
	command := opts.Agent.Command
	args := BuildArgs(opts.Prompt, opts.Agent, opts.SessionID)
	opts.Transcript.StartTurn(args, opts.SessionID)

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.WorkDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		close(events)
		return &runner.ProcessError{Command: command, ExitCode: -1, Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		close(events)
		return &runner.ProcessError{Command: command, ExitCode: -1, Cause: err}
	}

	if err := cmd.Start(); err != nil {
		close(events)
		return &runner.ProcessError{Command: command, ExitCode: -1, Cause: err}
	}
	c.logger.Debug("agent started", "command", command, "pid", cmd.Process.Pid, "resume", opts.SessionID != "")

	// stderr is drained for the lifetime of the process so a chatty agent
	// cannot block on a full pipe while we read stdout.
	var stderrBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stderrBuf, stderr)
		return err
	})

	c.readEvents(ctx, stdout, opts.Transcript, events)
	close(events)

	if err := g.Wait(); err != nil {
		c.logger.Debug("stderr drain ended with error", "error", err)
	}
	opts.Transcript.RecordStderr(stderrBuf.String())

	if err := cmd.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		c.logger.Debug("agent exited", "command", command, "exit_code", exitCode)
		return &runner.ProcessError{
			Command:  command,
			Started:  true,
			ExitCode: exitCode,
			Stderr:   stderrBuf.String(),
			Cause:    err,
		}
	}
	c.logger.Debug("agent exited", "command", command, "exit_code", 0)
	return nil
}

// readEvents decodes stdout until EOF. Once ctx is done events are no longer
// delivered, but stdout is still read to the end so the process can exit.
func (c *Claude) readEvents(ctx context.Context, stdout io.Reader, transcript *runner.Transcript, events chan<- runner.Event) {
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			transcript.RecordLine(trimmed)
			ev, decodeErr := runner.Decode(trimmed)
			if decodeErr != nil {
				c.logger.Debug("dropping malformed agent line", "error", decodeErr, "line", truncateLine(trimmed))
			} else {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Debug("reading agent output", "error", err)
			}
			return
		}
	}
}

func truncateLine(line []byte) string {
	if len(line) > 200 {
		return string(line[:200]) + "..."
	}
	return string(line)
}
