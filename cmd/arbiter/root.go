package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Task orchestrator with specialist delegation",
	Long: `Arbiter takes a user request, classifies it, and either handles it
directly or delegates sub-tasks to role-specific specialist agents
through a declared tool interface.

Progress is streamed as typed events, the full transcript is recorded,
and finished runs are persisted for later inspection with 'arbiter
history'.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
