// Command arbscan is the entry point for the cross-venue arbitrage scanner.
// It loads configuration, validates it, wires dependencies, sets up signal
// handling, and runs the scan loop (or a single pass with -once).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/app"
	"github.com/alanyoungcy/arbscan/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (optional)")
	threshold := flag.String("threshold", "", "edge alert threshold, e.g. 0.02 (overrides config)")
	interval := flag.Duration("interval", 0, "scan interval, e.g. 30s (overrides config)")
	bankroll := flag.String("bankroll", "", "bankroll for Kelly stake suggestions (overrides config)")
	once := flag.Bool("once", false, "run a single scan pass and exit")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Flags beat the config file and environment.
	if *threshold != "" {
		v, err := decimal.NewFromString(*threshold)
		if err != nil {
			logger.Error("invalid -threshold", slog.String("value", *threshold))
			os.Exit(1)
		}
		cfg.Scanner.Threshold = v
	}
	if *bankroll != "" {
		v, err := decimal.NewFromString(*bankroll)
		if err != nil {
			logger.Error("invalid -bankroll", slog.String("value", *bankroll))
			os.Exit(1)
		}
		cfg.Scanner.Bankroll = v
	}
	if *interval > 0 {
		cfg.Scanner.Interval.Duration = *interval
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("arbscan starting",
		slog.String("config", *configPath),
		slog.String("threshold", cfg.Scanner.Threshold.String()),
		slog.Duration("interval", cfg.Scanner.Interval.Duration),
		slog.Bool("once", *once),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := application.RunOnce(runCtx); err != nil {
			logger.Error("scan failed", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		logger.Info("arbscan finished")
		return
	}

	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if err == context.Canceled {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("arbscan stopped")
}
