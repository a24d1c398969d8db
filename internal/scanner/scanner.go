// Package scanner runs the cross-venue arbitrage scan: for every registry
// tag listed on at least two venues it fetches and normalizes both books,
// persists the snapshots, computes the fee-adjusted edge, and alerts when
// the edge clears the configured threshold.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/edge"
	"github.com/alanyoungcy/arbscan/internal/normalize"
	"github.com/alanyoungcy/arbscan/internal/registry"
	"github.com/alanyoungcy/arbscan/internal/sizing"
)

// kellyOdds is the conservative decimal-odds estimate used for stake sizing
// in alerts. Binary contracts near even money pay roughly 2.0.
var kellyOdds = decimal.NewFromInt(2)

// now is stubbed in tests to make record timestamps deterministic.
var now = time.Now

// Fetcher fetches the raw payload for one venue-native symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (json.RawMessage, error)
}

// Alerter delivers threshold alerts.
type Alerter interface {
	Notify(ctx context.Context, message string) error
}

// Archiver receives every edge computed during one scan pass. Optional.
type Archiver interface {
	Archive(ctx context.Context, recs []domain.EdgeRecord) error
}

// Publisher receives each edge record as it is computed, for live fan-out to
// dashboard clients. Optional.
type Publisher interface {
	PublishEdge(rec domain.EdgeRecord)
}

// Options wires a Scanner. Registry, Fetchers, Calc, Stores, Alerter, and
// Logger are required; Cache, Archiver, and Publisher may be nil. A zero
// Bankroll disables Kelly stake suggestions.
type Options struct {
	Registry  *registry.Registry
	Fetchers  map[domain.Exchange]Fetcher
	Calc      *edge.Calculator
	Snapshots domain.SnapshotStore
	Edges     domain.EdgeStore
	Cache     domain.EdgeCache
	Alerter   Alerter
	Archiver  Archiver
	Publisher Publisher
	Threshold decimal.Decimal
	Bankroll  decimal.Decimal
	Interval  time.Duration
	MaxPairs  int
	Logger    *slog.Logger
}

// Scanner orchestrates scan passes over the registry.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	if opts.MaxPairs < 1 {
		opts.MaxPairs = 1
	}
	return &Scanner{
		opts:   opts,
		logger: opts.Logger.With(slog.String("component", "scanner")),
	}
}

// Run executes scan passes at the configured interval until ctx is
// cancelled. The first pass starts immediately.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		s.ScanOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScanOnce runs a single scan pass. Per-pair failures are logged and
// skipped; one broken venue or market never aborts the pass.
func (s *Scanner) ScanOnce(ctx context.Context) {
	start := now()

	var mu sync.Mutex
	var edges []domain.EdgeRecord

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxPairs)

	for _, tag := range s.opts.Registry.Tags() {
		symbols := s.opts.Registry.VenueSymbols(tag)
		if len(symbols) < 2 {
			continue
		}

		venues := make([]domain.Exchange, 0, len(symbols))
		for _, ex := range domain.Exchanges {
			if _, ok := symbols[ex]; ok {
				venues = append(venues, ex)
			}
		}

		for i := 0; i < len(venues); i++ {
			for j := i + 1; j < len(venues); j++ {
				tag := tag
				venueA, venueB := venues[i], venues[j]
				g.Go(func() error {
					rec, err := s.checkPair(gctx, tag, venueA, symbols[venueA], venueB, symbols[venueB])
					if err != nil {
						s.logger.ErrorContext(gctx, "pair check failed",
							slog.String("tag", tag),
							slog.String("venue_a", string(venueA)),
							slog.String("venue_b", string(venueB)),
							slog.String("error", err.Error()),
						)
						return nil
					}
					mu.Lock()
					edges = append(edges, rec)
					mu.Unlock()
					return nil
				})
			}
		}
	}

	_ = g.Wait()

	if s.opts.Archiver != nil && len(edges) > 0 {
		if err := s.opts.Archiver.Archive(ctx, edges); err != nil {
			s.logger.ErrorContext(ctx, "archive failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "scan pass complete",
		slog.Int("edges", len(edges)),
		slog.Duration("elapsed", now().Sub(start)),
	)
}

// checkPair fetches, normalizes, persists, and scores one venue pair for one
// tag, returning the stored edge record.
func (s *Scanner) checkPair(ctx context.Context, tag string, venueA domain.Exchange, symbolA string, venueB domain.Exchange, symbolB string) (domain.EdgeRecord, error) {
	snapA, err := s.fetchSnapshot(ctx, venueA, symbolA)
	if err != nil {
		return domain.EdgeRecord{}, err
	}
	snapB, err := s.fetchSnapshot(ctx, venueB, symbolB)
	if err != nil {
		return domain.EdgeRecord{}, err
	}

	for _, snap := range []domain.MarketSnapshot{snapA, snapB} {
		if sides := snap.DegradedSides(); len(sides) > 0 {
			s.logger.WarnContext(ctx, "snapshot degraded, side has no liquidity",
				slog.String("tag", tag),
				slog.String("venue", string(snap.Key.Exchange)),
				slog.Any("sides", sides),
			)
		}
	}

	ts := now().UTC()
	for _, snap := range []domain.MarketSnapshot{snapA, snapB} {
		rec := domain.SnapshotRecord{
			ID:       uuid.New(),
			Tag:      tag,
			Exchange: snap.Key.Exchange,
			YesPrice: snap.BestYes.Price,
			NoPrice:  snap.BestNo.Price,
			TS:       ts,
		}
		if err := s.opts.Snapshots.Insert(ctx, rec); err != nil {
			return domain.EdgeRecord{}, fmt.Errorf("save snapshot: %w", err)
		}
	}

	dir, err := s.opts.Calc.Direction(snapA, snapB)
	if err != nil {
		return domain.EdgeRecord{}, err
	}

	rec := domain.EdgeRecord{
		ID:          uuid.New(),
		Tag:         tag,
		YesExchange: dir.YesVenue,
		NoExchange:  dir.NoVenue,
		Edge:        dir.Edge,
		TS:          ts,
	}
	if err := s.opts.Edges.Insert(ctx, rec); err != nil {
		return domain.EdgeRecord{}, fmt.Errorf("save edge: %w", err)
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetLatest(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "edge cache update failed",
				slog.String("tag", tag),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.opts.Publisher != nil {
		s.opts.Publisher.PublishEdge(rec)
	}

	if dir.Edge.GreaterThanOrEqual(s.opts.Threshold) {
		msg := formatAlert(dir, s.opts.Bankroll)
		if err := s.opts.Alerter.Notify(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("tag", tag),
				slog.String("error", err.Error()),
			)
		}
	}

	return rec, nil
}

func (s *Scanner) fetchSnapshot(ctx context.Context, venue domain.Exchange, symbol string) (domain.MarketSnapshot, error) {
	fetcher, ok := s.opts.Fetchers[venue]
	if !ok {
		return domain.MarketSnapshot{}, fmt.Errorf("%w: no client for %q", domain.ErrUnsupportedVenue, venue)
	}
	raw, err := fetcher.Fetch(ctx, symbol)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	return normalize.Snapshot(raw, venue)
}

// formatAlert renders the alert line for a winning direction. The edge is
// shown in percent with three decimals, prices raw with two. When bankroll
// is positive a Kelly stake suggestion is appended.
func formatAlert(dir edge.Direction, bankroll decimal.Decimal) string {
	msg := fmt.Sprintf("EDGE %s | %s YES@%s %s vs NO@%s %s",
		dir.Edge.Mul(decimal.NewFromInt(100)).StringFixed(3),
		dir.Tag,
		dir.YesVenue, dir.YesPrice.StringFixed(2),
		dir.NoVenue, dir.NoPrice.StringFixed(2),
	)

	if bankroll.IsPositive() {
		if frac, err := sizing.Fraction(dir.Edge, kellyOdds); err == nil {
			msg += fmt.Sprintf(" | Kelly stake: $%s", frac.Mul(bankroll).StringFixed(0))
		}
	}
	return msg
}
