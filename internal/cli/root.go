package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/swapwatch/internal/control"
	"github.com/vietddude/swapwatch/internal/core/config"
	"github.com/vietddude/swapwatch/internal/infra/logging"
)

var (
	cfgPath string
	isDebug bool
	apiURL  string
)

var rootCmd = &cobra.Command{
	Use:   "swapwatch",
	Short: "Uniswap pool swap notifier",
	Long:  `Swapwatch polls Uniswap V2/V3 pools for swaps and posts buy/sell notifications to Telegram chats.`,
	Run:   runWatcher,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "control API address used by client commands")
}

func runWatcher(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	setupLogging(cfg)
	defer sentry.Flush(2 * time.Second)

	// Initialize Watcher
	app, err := control.NewWatcher(cfg)
	if err != nil {
		slog.Error("Failed to initialize Watcher", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start Watcher", "error", err)
		os.Exit(1)
	}

	slog.Info("Swapwatch started", "config", cfgPath, "port", cfg.Server.Port, "pools", len(cfg.Pools))

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
	slog.Info("Swapwatch stopped gracefully")
}

func setupLogging(cfg *config.AppConfig) {
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	if cfg.Sentry.DSN == "" {
		return
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	}); err != nil {
		slog.Warn("Failed to init sentry", "error", err)
		return
	}
	slog.SetDefault(slog.New(logging.NewSentryHandler(slog.Default().Handler(), nil, slog.LevelError)))
	slog.Info("Sentry error reporting enabled", "environment", cfg.Sentry.Environment)
}
