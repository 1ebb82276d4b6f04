package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mercator-hq/callisto/pkg/chat/retention"
	"mercator-hq/callisto/pkg/chat/runlog"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// RunLister lists recorded cleanup runs, newest first.
type RunLister interface {
	List(ctx context.Context, limit int) ([]*runlog.RunRecord, error)
}

// Options bundles the dependencies of the admin server.
type Options struct {
	// Config is the server configuration section.
	Config *config.ServerConfig

	// Security carries the admin API keys. No enabled keys disables the
	// admin endpoints entirely.
	Security *config.SecurityConfig

	// Cleaner executes cleanup runs triggered through the admin API.
	Cleaner *retention.Cleaner

	// Checker serves the health probes.
	Checker *health.Checker

	// Metrics exposes the Prometheus endpoint. Nil disables it.
	Metrics *metrics.Collector

	// MetricsPath is where the metrics handler is mounted.
	MetricsPath string

	// Runs serves the run history endpoint. Nil disables it.
	Runs RunLister

	// Version information for the /version endpoint.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the admin HTTP server: cleanup trigger, run history, health
// probes, and metrics.
type Server struct {
	config    *config.ServerConfig
	cleaner   *retention.Cleaner
	checker   *health.Checker
	metrics   *metrics.Collector
	runs      RunLister
	validator *auth.AdminKeyValidator

	metricsPath string
	version     string
	commit      string
	buildTime   string

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the admin server.
func NewServer(opts Options) *Server {
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = config.DefaultMetricsPath
	}

	var validator *auth.AdminKeyValidator
	if keys := adminKeyInfos(opts.Security); len(keys) > 0 {
		validator = auth.NewAdminKeyValidator(keys)
	}

	return &Server{
		config:       opts.Config,
		validator:    validator,
		cleaner:      opts.Cleaner,
		checker:      opts.Checker,
		metrics:      opts.Metrics,
		runs:         opts.Runs,
		metricsPath:  metricsPath,
		version:      opts.Version,
		commit:       opts.Commit,
		buildTime:    opts.BuildTime,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting admin server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}

		slog.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("admin server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	health.Register(mux, s.checker, s.version, s.commit, s.buildTime)

	if s.metrics != nil {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}

	if s.validator != nil {
		middleware := auth.NewAdminKeyMiddleware(s.validator, auth.DefaultSources())

		mux.Handle("/admin/cleanup", middleware.Handle(http.HandlerFunc(s.handleCleanup)))
		mux.Handle("/admin/runs", middleware.Handle(http.HandlerFunc(s.handleRuns)))
	} else {
		slog.Warn("no admin keys configured, admin endpoints disabled")
	}

	var handler http.Handler = mux
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)

	return handler
}

// ReloadAdminKeys swaps the admin key set after a configuration reload,
// so key rotation takes effect without a restart. Admin endpoints
// disabled at startup stay disabled until restart.
func (s *Server) ReloadAdminKeys(security *config.SecurityConfig) {
	if s.validator == nil {
		slog.Warn("admin endpoints are disabled, ignoring reloaded admin keys")
		return
	}
	keys := adminKeyInfos(security)
	s.validator.Replace(keys)
	slog.Info("admin keys reloaded", "keys", len(keys))
}

// adminKeyInfos converts the configured keys into validator entries,
// skipping disabled ones.
func adminKeyInfos(security *config.SecurityConfig) []*auth.AdminKeyInfo {
	if security == nil {
		return nil
	}

	var keys []*auth.AdminKeyInfo
	for _, key := range security.AdminKeys {
		enabled := key.Enabled == nil || *key.Enabled
		if !enabled || key.Key == "" {
			continue
		}
		keys = append(keys, &auth.AdminKeyInfo{
			Key:     key.Key,
			UserID:  key.UserID,
			Enabled: true,
		})
	}
	return keys
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
