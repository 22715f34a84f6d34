package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Displays the effective configuration after merging defaults, the
user config (~/.config/arbiter/config.yaml), any project-level
.arbiter.yaml, and environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		redisDisplay := "(disabled)"
		if cfg.Redis.Addr != "" {
			redisDisplay = cfg.Redis.Addr
		}

		fmt.Printf("run.timeout: %s\n", cfg.Run.Timeout)
		fmt.Printf("run.event_buffer: %d\n", cfg.Run.EventBuffer)
		fmt.Printf("delegation.max_retries: %d\n", cfg.Delegation.MaxRetries)
		fmt.Printf("delegation.fallback_to_direct: %t\n", cfg.Delegation.FallbackToDirect)
		fmt.Printf("redis.addr: %s\n", redisDisplay)
		fmt.Printf("logging.debug_log: %s\n", cfg.Logging.DebugLog)

		if project := config.GetProjectConfigPath(); project != "" {
			fmt.Printf("\nproject config: %s\n", project)
		}
		fmt.Printf("user config: %s\n", config.GetUserConfigPath())
	},
}
