package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/state"
	"github.com/arbiterhq/arbiter/pkg/models"
)

var (
	historyLimit      int
	historyTranscript string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted task runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := state.OpenGlobal()
		if err != nil {
			return fmt.Errorf("opening state db: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrating state db: %w", err)
		}

		if historyTranscript != "" {
			return showTranscript(db, historyTranscript)
		}

		runs, err := db.ListRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		for _, run := range runs {
			status := color.GreenString(string(run.Status))
			if run.Status == models.RunStatusFailed {
				status = color.RedString(string(run.Status))
			}
			fmt.Printf("%s  %s  %s  %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.ID[:8], status, truncate(run.Prompt, 60))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyTranscript, "transcript", "", "Show the transcript for a run ID")
}

func showTranscript(db *state.DB, runID string) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}
	entries, err := db.GetTranscript(runID)
	if err != nil {
		return fmt.Errorf("loading transcript: %w", err)
	}

	fmt.Printf("Run %s (%s)\n\n", run.ID, run.Status)
	for _, e := range entries {
		fmt.Printf("%s: %s\n", e.Role, e.Content)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
