package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/chat/retention"
	"mercator-hq/callisto/pkg/chat/runlog"
	"mercator-hq/callisto/pkg/chat/storage"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto service",
	Long: `Start the Callisto service with the specified configuration.

The service opens the chat and run-history databases, starts the cron
cleanup scheduler, and serves the admin HTTP API with health probes and
Prometheus metrics.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:8080

  # Validate config without starting the service
  callisto run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runService(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.Get()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Init(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx := cli.SetupSignalHandler()

	// Chat store
	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
		Path:         cfg.Store.Path,
		MaxOpenConns: cfg.Store.MaxOpenConns,
		MaxIdleConns: cfg.Store.MaxIdleConns,
		WALMode:      cfg.Store.WALMode == nil || *cfg.Store.WALMode,
		BusyTimeout:  cfg.Store.BusyTimeout,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open chat store: %w", err))
	}
	defer store.Close()
	fmt.Printf("✓ Chat store opened (%s)\n", cfg.Store.Path)

	// Cleanup orchestrator
	cleaner := retention.NewCleaner(store, &retention.Config{
		RetentionHours:        cfg.Retention.Hours,
		Schedule:              cfg.Retention.Schedule,
		MessageBatchSize:      cfg.Retention.MessageBatchSize,
		ConversationBatchSize: cfg.Retention.ConversationBatchSize,
		MaxRunDuration:        cfg.Retention.MaxRunDuration,
	})

	// Health checker
	checker := health.New(0)
	checker.RegisterCheck("chat_store", store.Ping)

	// Run history
	var runLog *runlog.SQLiteRunLog
	if cfg.RunLog.Enabled == nil || *cfg.RunLog.Enabled {
		runLog, err = runlog.NewSQLiteRunLog(cfg.RunLog.Path)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open run history: %w", err))
		}
		defer runLog.Close()
		cleaner.SetRunRecorder(runLog)
		checker.RegisterCheck("runlog", runLog.Ping)
		fmt.Printf("✓ Run history opened (%s)\n", cfg.RunLog.Path)
	}

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled == nil || *cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		cleaner.SetObserver(collector)
	}

	// Scheduler: an init failure downgrades to manual-only cleanup, the
	// admin API keeps serving.
	scheduler := retention.NewScheduler(cleaner, cfg.Retention.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("failed to start cleanup scheduler, continuing with manual cleanup only",
			"error", err,
		)
	} else if next := scheduler.NextRun(); next != nil {
		fmt.Printf("✓ Cleanup scheduled (%s, next run %s)\n", cfg.Retention.Schedule, next.Format("2006-01-02 15:04:05 MST"))
		defer scheduler.Stop()
	}

	// Admin server
	srv := server.NewServer(server.Options{
		Config:      &cfg.Server,
		Security:    &cfg.Security,
		Cleaner:     cleaner,
		Checker:     checker,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Runs:        runLogOrNil(runLog),
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
	})

	// Config hot-reload: a changed retention.hours and rotated admin
	// keys take effect without restart.
	if cfg.Retention.Watch {
		watcher, err := config.NewFileWatcher(cfgFile, slog.Default().With("component", "config.watcher"))
		if err != nil {
			slog.Error("failed to create config watcher", "error", err)
		} else {
			go func() {
				err := watcher.Watch(ctx, func() error {
					if err := config.Reload(cfgFile); err != nil {
						return err
					}
					reloaded := config.Get()
					srv.ReloadAdminKeys(&reloaded.Security)
					return cleaner.SetDefaultRetentionHours(reloaded.Retention.Hours)
				})
				if err != nil {
					slog.Error("config watcher exited", "error", err)
				}
			}()
			defer watcher.Stop()
			fmt.Println("✓ Config watcher started")
		}
	}

	fmt.Println()
	fmt.Printf("✓ Admin server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health/ready\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Service stopped")
	return nil
}

// runLogOrNil avoids handing the server a non-nil interface wrapping a
// nil pointer when run history is disabled.
func runLogOrNil(l *runlog.SQLiteRunLog) server.RunLister {
	if l == nil {
		return nil
	}
	return l
}
