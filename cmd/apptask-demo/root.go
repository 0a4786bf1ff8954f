package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/apptask/config"
	"github.com/utkarsh5026/apptask/internal/logging"
	"github.com/utkarsh5026/apptask/metrics"
	"github.com/utkarsh5026/apptask/runner"
)

var (
	cfgPath     string
	isDebug     bool
	metricsAddr string
	backoffType string
	panicAfter  time.Duration
	plainMode   bool
)

var rootCmd = &cobra.Command{
	Use:   "apptask-demo",
	Short: "Run sample supervised tasks",
	Long: `apptask-demo spawns a basic task, a task that fails once and a task that
panics, then reports how each of them ended.`,
	SilenceUsage: true,
	RunE:         runDemo,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&backoffType, "backoff", "", "override the backoff type (constant, threshold_buckets, exponential, jittered, decorrelated)")
	rootCmd.PersistentFlags().DurationVar(&panicAfter, "panic-after", 7*time.Second, "how long the panicking task sleeps before it panics")
	rootCmd.PersistentFlags().BoolVar(&plainMode, "plain", false, "disable colors and the progress bar")
}

func loadConfig() (*config.AppConfig, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}

	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, err = config.Parse(nil)
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, err
	}

	if isDebug {
		cfg.Logging.Level = "debug"
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	if backoffType != "" {
		cfg.Backoff.Type = backoffType
	}

	return cfg, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, plainMode)
	slog.SetDefault(logger)

	factory, err := cfg.Backoff.Factory()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)

	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(cfg.Metrics.Addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	tracker := newTracker(plainMode, os.Stdout)

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithMetrics(collector),
		runner.WithBeforeAttempt(tracker.attemptStarted),
		runner.WithOnTaskEnd(tracker.taskEnded),
	}
	if cfg.Runner.RateLimit > 0 {
		opts = append(opts, runner.WithRateLimit(cfg.Runner.RateLimit, cfg.Runner.Burst))
	}

	r := runner.New(&State{}, opts...).WithStrategy(factory)

	logger.Info("starting tasks",
		slog.String("backoff", cfg.Backoff.TypeName()),
		slog.String("panic_after", panicAfter.String()),
	)

	handles := spawnDemoTasks(ctx, r, tracker, panicAfter)

	results := make([]taskResult, 0, len(handles))
	for _, h := range handles {
		err := h.Wait()
		results = append(results, taskResult{
			label:    h.Label(),
			id:       h.ID().String(),
			attempts: tracker.attempts(h.Label()),
			err:      err,
		})
	}
	tracker.finish()

	printSummary(results, plainMode)

	for _, res := range results {
		var pe *runner.PanicError
		if errors.As(res.err, &pe) {
			return fmt.Errorf("a task panicked: %w", pe)
		}
	}
	return nil
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("serving metrics", slog.String("addr", addr))
	return srv
}
