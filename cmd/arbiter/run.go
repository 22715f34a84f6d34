package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/events"
	"github.com/arbiterhq/arbiter/internal/orchestrator"
	"github.com/arbiterhq/arbiter/internal/orchestrator/policy"
	"github.com/arbiterhq/arbiter/internal/state"
	"github.com/arbiterhq/arbiter/pkg/models"
)

var (
	runTimeout   time.Duration
	runRedisAddr string
	runNoPersist bool
)

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Execute one task run for a prompt",
	Long: `Run classifies the prompt, delegates to a specialist or handles it
directly, and streams progress events to stdout until the run emits
its terminal done event.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")
		return executeRun(prompt)
	},
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Overall deadline for the run (default from config)")
	runCmd.Flags().StringVar(&runRedisAddr, "redis", "", "Redis address to republish events to (overrides config)")
	runCmd.Flags().BoolVar(&runNoPersist, "no-persist", false, "Skip persisting the finished run")
}

func executeRun(prompt string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	timeout := runTimeout
	if timeout == 0 {
		timeout = cfg.Run.Timeout
	}

	logger, err := orchestrator.NewDebugLogger(cfg.Logging.DebugLog)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	defer logger.Close()

	var store orchestrator.RunStore
	if !runNoPersist {
		db, err := state.OpenGlobal()
		if err != nil {
			return fmt.Errorf("opening state db: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrating state db: %w", err)
		}
		store = db
	}

	var sink events.Sink
	redisAddr := runRedisAddr
	if redisAddr == "" {
		redisAddr = cfg.Redis.Addr
	}
	if redisAddr != "" {
		rs := events.NewRedisSink(&redis.Options{
			Addr:     redisAddr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, nil)
		defer rs.Close()
		sink = rs
	}

	pol := policy.Default()
	pol.Delegation.MaxRetries = cfg.Delegation.MaxRetries
	pol.Delegation.FallbackToDirect = cfg.Delegation.FallbackToDirect
	pol.Events.BufferSize = cfg.Run.EventBuffer

	emitter := events.NewEmitter(pol.Events.BufferSize)
	orch := orchestrator.New(orchestrator.Config{
		Policy:  pol,
		Emitter: emitter,
		Sink:    sink,
		Store:   store,
		Logger:  logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range emitter.Events() {
			printEvent(ev)
		}
	}()

	run := orch.Run(ctx, prompt)
	emitter.Close()
	wg.Wait()

	if run.Status == models.RunStatusFailed {
		fmt.Fprintf(os.Stderr, "run %s failed: %s\n", run.ID, run.Error)
		os.Exit(1)
	}
	return nil
}

// printEvent renders one event to stdout, color-coded by type.
func printEvent(ev models.Event) {
	ts := ev.Timestamp.Local().Format("15:04:05")
	switch ev.Type {
	case models.EventLog:
		color.New(color.FgHiBlack).Printf("[%s] %s\n", ts, ev.Content)
	case models.EventMessage:
		color.New(color.FgCyan).Printf("[%s] %s\n", ts, ev.Content)
	case models.EventError:
		color.New(color.FgRed).Printf("[%s] %s: %s\n", ts, ev.Content, ev.Err)
	case models.EventFinalResult:
		if ev.Err != "" {
			color.New(color.FgRed, color.Bold).Printf("[%s] %s (%s)\n", ts, ev.Content, ev.Err)
		} else {
			color.New(color.FgGreen, color.Bold).Printf("[%s] %s\n", ts, ev.Content)
		}
	case models.EventDone:
		color.New(color.FgHiBlack).Printf("[%s] done\n", ts)
	default:
		fmt.Printf("[%s] %s %s\n", ts, ev.Type, ev.Content)
	}
}
