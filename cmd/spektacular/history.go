package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jumppad-labs/spektacular/internal/ledger"
	"github.com/jumppad-labs/spektacular/internal/project"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent plan runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := os.Getwd()
			if err != nil {
				return err
			}

			dbPath := project.DatabasePath(projectDir)
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No plan runs recorded yet.")
				return nil
			}

			store, err := ledger.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plan runs recorded yet.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func renderRuns(runs []*ledger.Run) string {
	t := table.New().Headers("RUN", "SPEC", "STATE", "TURNS", "STARTED", "DURATION", "DETAIL")
	for _, run := range runs {
		duration := "-"
		if run.EndedAt != nil {
			duration = run.EndedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		detail := run.PlanDir
		if run.Error != "" {
			detail = run.Error
		}
		t.Row(
			run.ID,
			run.Spec,
			run.State,
			fmt.Sprint(run.Turns),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
			detail,
		)
	}
	return t.Render()
}
