package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jumppad-labs/spektacular/internal/config"
	"github.com/jumppad-labs/spektacular/internal/knowledge"
	"github.com/jumppad-labs/spektacular/internal/ledger"
	"github.com/jumppad-labs/spektacular/internal/plan"
	"github.com/jumppad-labs/spektacular/internal/project"
	"github.com/jumppad-labs/spektacular/internal/runner"
	"github.com/jumppad-labs/spektacular/internal/tui"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <spec-file>",
		Short: "Generate an implementation plan from a specification",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	specFile := args[0]
	specText, err := os.ReadFile(specFile)
	if err != nil {
		return fmt.Errorf("reading spec: %w", err)
	}

	projectDir, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.LoadProject(projectDir)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(projectDir, logLevel(cmd, cfg), true)
	if err != nil {
		return err
	}
	defer closeLog()

	persona, err := knowledge.LoadPersona(projectDir)
	if err != nil {
		return err
	}
	entries, err := knowledge.Load(projectDir)
	if err != nil {
		return err
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}

	runID := fmt.Sprintf("plan-%s-%s", time.Now().UTC().Format("20060102-150405"), uuid.New().String()[:8])
	logger = logger.With("run_id", runID)
	logger.Info("starting plan", "spec", specFile, "agent", cfg.Agent.Command, "knowledge_entries", len(entries))

	transcript, err := runner.NewTranscript(project.LogDir(projectDir), runID, specFile)
	if err != nil {
		logger.Warn("transcript disabled", "error", err)
	}
	defer transcript.Close()

	var journal plan.Journal
	if store, err := ledger.Open(project.DatabasePath(projectDir)); err != nil {
		logger.Warn("run ledger disabled", "error", err)
	} else {
		defer store.Close()
		journal = store
	}

	ctx, cancel := context.WithCancel(cmd.Context())

	messages := make(chan plan.Message, 64)
	resume := make(chan string, 1)

	session := plan.NewSession(r, plan.SessionOptions{
		RunID:      runID,
		Spec:       specFile,
		Prompt:     plan.BuildPrompt(string(specText), persona, entries),
		Agent:      cfg.Agent,
		PlanDir:    project.PlanDir(projectDir, specFile),
		WorkDir:    projectDir,
		Transcript: transcript,
		Journal:    journal,
		Logger:     logger,
	})
	done := startSession(ctx, session, messages, resume)
	// Runs before the ledger and transcript are closed so the session can
	// record its outcome.
	defer func() {
		cancel()
		<-done
	}()

	debug, _ := cmd.Flags().GetBool("debug")
	ctrl := plan.NewController(resume)
	model := tui.NewModel(ctrl, messages, tui.Options{
		SpecName: filepath.Base(specFile),
		Debug:    debug,
		Cancel:   cancel,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	switch ctrl.State() {
	case plan.StateCompleted:
		logger.Info("plan generated", "dir", ctrl.PlanDir())
		fmt.Fprintf(cmd.OutOrStdout(), "Plan generated: %s\n", ctrl.PlanDir())
		return nil
	case plan.StateFailed:
		return fmt.Errorf("generating plan: %w", ctrl.Err())
	default:
		logger.Info("plan cancelled", "state", ctrl.State().String())
		return errors.New("plan cancelled before completion")
	}
}

// startSession runs session in the background. The returned channel is
// closed once Run has returned and the outcome has been journaled.
func startSession(ctx context.Context, session *plan.Session, messages chan<- plan.Message, resume <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Run(ctx, messages, resume)
	}()
	return done
}
