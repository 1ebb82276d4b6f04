package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/chat"
	"mercator-hq/callisto/pkg/chat/retention"
	"mercator-hq/callisto/pkg/chat/runlog"
	"mercator-hq/callisto/pkg/chat/storage"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var cleanupFlags struct {
	retentionHours int
	output         string
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run one cleanup synchronously",
	Long: `Run one cleanup synchronously and print the resulting stats.

The run uses the configured retention period unless --retention-hours
overrides it. A store failure in one phase does not stop the other
phase; partial deletions are committed and reported in the stats.

Examples:
  # Clean up with the configured retention
  callisto cleanup

  # Override the retention period for this run
  callisto cleanup --retention-hours 24

  # Print stats as JSON
  callisto cleanup --output json`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupFlags.retentionHours, "retention-hours", 0, "override retention period in hours (default: from config)")
	cleanupCmd.Flags().StringVarP(&cleanupFlags.output, "output", "o", "text", "output format (text, json)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.Get()

	// Stats go to stdout; keep logs on stderr and quiet unless -v.
	logCfg := cfg.Telemetry.Logging
	if !verbose {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logging.Options{
		Level:  logCfg.Level,
		Format: logCfg.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
		Path:         cfg.Store.Path,
		MaxOpenConns: cfg.Store.MaxOpenConns,
		MaxIdleConns: cfg.Store.MaxIdleConns,
		WALMode:      cfg.Store.WALMode == nil || *cfg.Store.WALMode,
		BusyTimeout:  cfg.Store.BusyTimeout,
	})
	if err != nil {
		return cli.NewCommandError("cleanup", fmt.Errorf("failed to open chat store: %w", err))
	}
	defer store.Close()

	cleaner := retention.NewCleaner(store, &retention.Config{
		RetentionHours:        cfg.Retention.Hours,
		Schedule:              cfg.Retention.Schedule,
		MessageBatchSize:      cfg.Retention.MessageBatchSize,
		ConversationBatchSize: cfg.Retention.ConversationBatchSize,
		MaxRunDuration:        cfg.Retention.MaxRunDuration,
	})

	if cfg.RunLog.Enabled == nil || *cfg.RunLog.Enabled {
		runLog, err := runlog.NewSQLiteRunLog(cfg.RunLog.Path)
		if err != nil {
			return cli.NewCommandError("cleanup", fmt.Errorf("failed to open run history: %w", err))
		}
		defer runLog.Close()
		cleaner.SetRunRecorder(runLog)
	}

	// Changed() distinguishes an absent flag from an explicit zero; an
	// explicit non-positive override must be rejected, not defaulted.
	retentionHours := cfg.Retention.Hours
	if cmd.Flags().Changed("retention-hours") {
		retentionHours = cleanupFlags.retentionHours
	}

	ctx := cli.SetupSignalHandler()
	stats, err := cleaner.Run(ctx, retention.TriggerCLI, retentionHours, time.Now().UTC())
	if err != nil {
		return cli.NewCommandError("cleanup", err)
	}

	if err := printStats(stats, cli.OutputFormat(cleanupFlags.output)); err != nil {
		return err
	}

	if stats.Failed() {
		return cli.NewCommandError("cleanup", fmt.Errorf("completed with %d errors", len(stats.Errors)))
	}
	return nil
}

func printStats(stats *chat.CleanupStats, format cli.OutputFormat) error {
	if format == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, stats)
	}

	status := "Cleanup completed"
	if stats.Failed() {
		status = "Cleanup completed with errors"
	}

	fmt.Println(status)
	fmt.Printf("  Retention:             %dh (cutoff %s)\n", stats.RetentionHours, stats.Cutoff.UTC().Format(time.RFC3339))
	fmt.Printf("  Messages deleted:      %d\n", stats.MessagesDeleted)
	fmt.Printf("  Conversations deleted: %d\n", stats.ConversationsDeleted)
	fmt.Printf("  Duration:              %s\n", stats.Duration.Round(time.Millisecond))
	if len(stats.Errors) > 0 {
		fmt.Printf("  Errors:\n    %s\n", strings.Join(stats.Errors, "\n    "))
	}
	return nil
}
