package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jumppad-labs/spektacular/internal/project"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Spektacular project structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := os.Getwd()
			if err != nil {
				return err
			}
			if err := project.Init(projectDir, force); err != nil {
				return fmt.Errorf("initializing project: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized Spektacular project in %s\n", projectDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing .spektacular directory if it exists")
	return cmd
}

func newNewCmd() *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new specification from template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := os.Getwd()
			if err != nil {
				return err
			}
			path, err := project.NewSpec(projectDir, args[0], title, description)
			if err != nil {
				return fmt.Errorf("creating spec: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created spec: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "feature title")
	cmd.Flags().StringVar(&description, "description", "", "feature description")
	return cmd
}
