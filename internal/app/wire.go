package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/arbscan/internal/blob/s3"
	"github.com/alanyoungcy/arbscan/internal/cache/redis"
	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/edge"
	"github.com/alanyoungcy/arbscan/internal/fees"
	"github.com/alanyoungcy/arbscan/internal/notify"
	"github.com/alanyoungcy/arbscan/internal/platform/kalshi"
	"github.com/alanyoungcy/arbscan/internal/platform/nadex"
	"github.com/alanyoungcy/arbscan/internal/platform/predictit"
	"github.com/alanyoungcy/arbscan/internal/registry"
	"github.com/alanyoungcy/arbscan/internal/scanner"
	"github.com/alanyoungcy/arbscan/internal/store/postgres"
)

// Dependencies bundles every dependency the scan loop and API server need.
// Cache and Archiver stay nil when the corresponding backend is disabled.
type Dependencies struct {
	Registry *registry.Registry
	Fees     *fees.Table
	Calc     *edge.Calculator
	Fetchers map[domain.Exchange]scanner.Fetcher

	Snapshots domain.SnapshotStore
	Edges     domain.EdgeStore
	Cache     domain.EdgeCache
	EdgeCache *redis.EdgeCache
	Archiver  scanner.Archiver

	Notifier *notify.Notifier
}

// wire constructs all concrete dependency implementations from the
// configuration. Cleanup functions for connection-holding resources are
// registered on the App and released by Close.
func (a *App) wire(ctx context.Context) (*Dependencies, error) {
	cfg := a.cfg
	deps := &Dependencies{}

	// --- Registry and fee schedules ---
	reg, err := registry.Load(cfg.Scanner.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("wire: registry: %w", err)
	}
	deps.Registry = reg

	table, err := fees.Load(cfg.Scanner.FeesPath)
	if err != nil {
		return nil, fmt.Errorf("wire: fees: %w", err)
	}
	deps.Fees = table
	deps.Calc = edge.NewCalculator(table, reg)

	// --- Venue clients ---
	deps.Fetchers = map[domain.Exchange]scanner.Fetcher{
		domain.ExchangeKalshi: scanner.KalshiFetcher{
			Client: kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey),
		},
		domain.ExchangeNadex: scanner.NadexFetcher{
			Client: nadex.NewClient(cfg.Nadex.BaseURL),
		},
		domain.ExchangePredictIt: scanner.PredictItFetcher{
			Client: predictit.NewClient(cfg.PredictIt.BaseURL),
		},
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: postgres: %w", err)
	}
	a.closers = append(a.closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Snapshots = postgres.NewSnapshotStore(pool)
	deps.Edges = postgres.NewEdgeStore(pool)

	// --- Redis edge cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		deps.EdgeCache = redis.NewEdgeCache(redisClient)
		deps.Cache = deps.EdgeCache
	}

	// --- S3 edge archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.SlackWebhookURL != "" {
		senders = append(senders, notify.NewSlackSender(cfg.Notify.SlackWebhookURL))
	} else {
		senders = append(senders, notify.NewStdoutSender())
	}
	deps.Notifier = notify.NewNotifier(senders, a.logger)

	a.logger.InfoContext(ctx, "dependencies wired",
		slog.Int("registry_entries", reg.Len()),
		slog.Bool("redis_enabled", cfg.Redis.Enabled),
		slog.Bool("s3_enabled", cfg.S3.Enabled),
	)

	return deps, nil
}
