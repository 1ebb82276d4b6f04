package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/chat/runlog"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var runsFlags struct {
	limit  int
	output string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded cleanup runs",
	Long: `List recorded cleanup runs, newest first.

Examples:
  # Show the last 20 runs
  callisto runs

  # Show the last 5 runs as JSON
  callisto runs --limit 5 --output json`,
	RunE: listRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 20, "maximum number of runs to list")
	runsCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "text", "output format (text, json)")
}

func listRuns(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.Get()

	if cfg.RunLog.Enabled != nil && !*cfg.RunLog.Enabled {
		return cli.NewConfigError("runlog.enabled", "run history is disabled")
	}

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

	runLog, err := runlog.NewSQLiteRunLog(cfg.RunLog.Path)
	if err != nil {
		return cli.NewCommandError("runs", fmt.Errorf("failed to open run history: %w", err))
	}
	defer runLog.Close()

	ctx := cli.SetupSignalHandler()
	records, err := runLog.List(ctx, runsFlags.limit)
	if err != nil {
		return cli.NewCommandError("runs", err)
	}

	if cli.OutputFormat(runsFlags.output) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, records)
	}

	if len(records) == 0 {
		fmt.Println("No cleanup runs recorded")
		return nil
	}

	for _, rec := range records {
		status := "ok"
		if len(rec.Errors) > 0 {
			status = fmt.Sprintf("%d errors", len(rec.Errors))
		}
		fmt.Printf("%s  %-9s  retention %3dh  messages %-6d conversations %-5d %s\n",
			rec.StartedAt.UTC().Format(time.RFC3339),
			rec.Trigger,
			rec.RetentionHours,
			rec.MessagesDeleted,
			rec.ConversationsDeleted,
			status,
		)
	}
	return nil
}
