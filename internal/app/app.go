// Package app provides the top-level application lifecycle for the arbitrage
// scanner. It wires together all dependencies (venue clients, stores, cache,
// archive, notifications, and the API server) and runs the scan loop until
// the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscan/internal/config"
	"github.com/alanyoungcy/arbscan/internal/scanner"
	"github.com/alanyoungcy/arbscan/internal/server"
	"github.com/alanyoungcy/arbscan/internal/server/handler"
	"github.com/alanyoungcy/arbscan/internal/server/ws"
)

// shutdownTimeout bounds how long the HTTP server waits for in-flight
// requests after the run context is cancelled.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and starts the scan loop, the WebSocket hub,
// and the HTTP server when enabled. It blocks until the context is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	deps, err := a.wire(ctx)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	var hub *ws.Hub
	if a.cfg.Server.Enabled {
		hub = ws.NewHub(a.logger)
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
	}

	sc := scanner.New(a.scannerOptions(deps, hub))
	g.Go(func() error {
		return sc.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		handlers := server.Handlers{
			Health:    handler.NewHealthHandler(a.logger),
			Edges:     handler.NewEdgeHandler(deps.Edges, a.logger),
			Snapshots: handler.NewSnapshotHandler(deps.Snapshots, a.logger),
		}
		if deps.EdgeCache != nil {
			handlers.Latest = handler.NewLatestHandler(deps.EdgeCache, deps.Registry.Tags(), a.logger)
		}
		srv := server.NewServer(
			server.Config{
				Port:        a.cfg.Server.Port,
				CORSOrigins: a.cfg.Server.CORSOrigins,
			},
			handlers,
			hub,
			a.logger,
		)
		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	a.logger.InfoContext(ctx, "application started",
		slog.Int("registry_entries", deps.Registry.Len()),
		slog.Bool("server_enabled", a.cfg.Server.Enabled),
	)

	return g.Wait()
}

// RunOnce wires all dependencies, runs a single scan pass, and returns. The
// HTTP server is not started.
func (a *App) RunOnce(ctx context.Context) error {
	deps, err := a.wire(ctx)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}

	sc := scanner.New(a.scannerOptions(deps, nil))
	sc.ScanOnce(ctx)
	return nil
}

// scannerOptions assembles the scanner wiring from the resolved dependencies.
// The hub may be nil when the server is disabled.
func (a *App) scannerOptions(deps *Dependencies, hub *ws.Hub) scanner.Options {
	opts := scanner.Options{
		Registry:  deps.Registry,
		Fetchers:  deps.Fetchers,
		Calc:      deps.Calc,
		Snapshots: deps.Snapshots,
		Edges:     deps.Edges,
		Cache:     deps.Cache,
		Alerter:   deps.Notifier,
		Archiver:  deps.Archiver,
		Threshold: a.cfg.Scanner.Threshold,
		Bankroll:  a.cfg.Scanner.Bankroll,
		Interval:  a.cfg.Scanner.Interval.Duration,
		MaxPairs:  a.cfg.Scanner.MaxPairs,
		Logger:    a.logger,
	}
	if hub != nil {
		opts.Publisher = hub
	}
	return opts
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
