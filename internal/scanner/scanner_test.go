package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/edge"
	"github.com/alanyoungcy/arbscan/internal/fees"
	"github.com/alanyoungcy/arbscan/internal/registry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memSnapshotStore struct {
	mu   sync.Mutex
	recs []domain.SnapshotRecord
}

func (m *memSnapshotStore) Insert(_ context.Context, rec domain.SnapshotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memSnapshotStore) ListRecent(_ context.Context, limit int) ([]domain.SnapshotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.recs) {
		limit = len(m.recs)
	}
	return m.recs[len(m.recs)-limit:], nil
}

type memEdgeStore struct {
	mu   sync.Mutex
	recs []domain.EdgeRecord
}

func (m *memEdgeStore) Insert(_ context.Context, rec domain.EdgeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memEdgeStore) ListRecent(_ context.Context, limit int) ([]domain.EdgeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.recs) {
		limit = len(m.recs)
	}
	return m.recs[len(m.recs)-limit:], nil
}

type memEdgeCache struct {
	mu     sync.Mutex
	latest map[string]domain.EdgeRecord
}

func (m *memEdgeCache) SetLatest(_ context.Context, rec domain.EdgeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		m.latest = map[string]domain.EdgeRecord{}
	}
	m.latest[rec.Tag] = rec
	return nil
}

func (m *memEdgeCache) GetLatest(_ context.Context, tag string) (domain.EdgeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.latest[tag]
	if !ok {
		return domain.EdgeRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

type memAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (m *memAlerter) Notify(_ context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

type stubFetcher struct {
	payloads map[string]string
	err      error
}

func (f stubFetcher) Fetch(_ context.Context, symbol string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.payloads[symbol]
	if !ok {
		return nil, fmt.Errorf("no payload for %q", symbol)
	}
	return json.RawMessage(raw), nil
}

func kalshiPayload(ticker string, yesCents, noCents int) string {
	return fmt.Sprintf(`{
		"market": {
			"ticker": %q,
			"title": "test market?",
			"close_time": "2025-06-30T16:00:00Z",
			"yes_bids": [{"price": %d, "size": 100}],
			"no_bids": [{"price": %d, "size": 100}]
		},
		"timestamp": "2025-06-02T09:00:00Z"
	}`, ticker, yesCents, noCents)
}

func nadexPayload(id string, yesTicks, noTicks int) string {
	return fmt.Sprintf(`{
		"contract": {
			"id": %q,
			"name": "test contract",
			"expiry": "2025-06-30T16:00:00Z",
			"yes_price": %d,
			"no_price": %d,
			"yes_volume": 50,
			"no_volume": 50,
			"updated_at": "2025-06-02T09:00:00Z"
		}
	}`, id, yesTicks, noTicks)
}

func testRegistry() *registry.Registry {
	k := registry.Symbol("BTC-31MAY70K")
	n := registry.Symbol("NDX.BTC-70000")
	return registry.New([]registry.Entry{
		{Tag: "btc-70k-may31", Kalshi: &k, Nadex: &n},
	})
}

func newTestScanner(t *testing.T, fetchers map[domain.Exchange]Fetcher, opts func(*Options)) (*Scanner, *memSnapshotStore, *memEdgeStore, *memAlerter) {
	t.Helper()

	reg := testRegistry()
	snaps := &memSnapshotStore{}
	edges := &memEdgeStore{}
	alerter := &memAlerter{}

	o := Options{
		Registry:  reg,
		Fetchers:  fetchers,
		Calc:      edge.NewCalculator(fees.Zero(), reg),
		Snapshots: snaps,
		Edges:     edges,
		Alerter:   alerter,
		Threshold: decimal.RequireFromString("0.05"),
		Interval:  time.Second,
		MaxPairs:  4,
		Logger:    discardLogger(),
	}
	if opts != nil {
		opts(&o)
	}
	return New(o), snaps, edges, alerter
}

func TestScanOncePersistsAndAlerts(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })

	fetchers := map[domain.Exchange]Fetcher{
		// Zero fees: YES on Kalshi at 0.35, NO on Nadex at 0.58 leaves 0.07.
		domain.ExchangeKalshi: stubFetcher{payloads: map[string]string{
			"BTC-31MAY70K": kalshiPayload("BTC-31MAY70K", 35, 68),
		}},
		domain.ExchangeNadex: stubFetcher{payloads: map[string]string{
			"NDX.BTC-70000": nadexPayload("NDX.BTC-70000", 60, 58),
		}},
	}

	cache := &memEdgeCache{}
	var published []domain.EdgeRecord
	sc, snaps, edges, alerter := newTestScanner(t, fetchers, func(o *Options) {
		o.Cache = cache
		o.Bankroll = decimal.NewFromInt(1000)
		o.Publisher = publisherFunc(func(rec domain.EdgeRecord) { published = append(published, rec) })
	})

	sc.ScanOnce(context.Background())

	require.Len(t, snaps.recs, 2)
	require.Len(t, edges.recs, 1)

	rec := edges.recs[0]
	assert.Equal(t, "btc-70k-may31", rec.Tag)
	assert.Equal(t, domain.ExchangeKalshi, rec.YesExchange)
	assert.Equal(t, domain.ExchangeNadex, rec.NoExchange)
	assert.True(t, rec.Edge.Equal(decimal.RequireFromString("0.07")), "got %s", rec.Edge)
	assert.Equal(t, fixed, rec.TS)

	cached, err := cache.GetLatest(context.Background(), "btc-70k-may31")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, cached.ID)

	require.Len(t, published, 1)
	assert.Equal(t, rec.ID, published[0].ID)

	// Kelly at odds 2: f = 0.07*2/1 = 0.14 of a 1000 bankroll.
	require.Len(t, alerter.messages, 1)
	assert.Equal(t,
		"EDGE 7.000 | btc-70k-may31 YES@Kalshi 0.35 vs NO@Nadex 0.58 | Kelly stake: $140",
		alerter.messages[0],
	)
}

func TestScanOnceBelowThresholdStillPersists(t *testing.T) {
	fetchers := map[domain.Exchange]Fetcher{
		// 1 - 0.50 - 0.49 = 0.01, below the 0.05 threshold.
		domain.ExchangeKalshi: stubFetcher{payloads: map[string]string{
			"BTC-31MAY70K": kalshiPayload("BTC-31MAY70K", 50, 52),
		}},
		domain.ExchangeNadex: stubFetcher{payloads: map[string]string{
			"NDX.BTC-70000": nadexPayload("NDX.BTC-70000", 52, 49),
		}},
	}

	sc, _, edges, alerter := newTestScanner(t, fetchers, nil)
	sc.ScanOnce(context.Background())

	require.Len(t, edges.recs, 1, "edge is recorded regardless of threshold")
	assert.Empty(t, alerter.messages)
}

func TestScanOnceSkipsFailingPair(t *testing.T) {
	fetchers := map[domain.Exchange]Fetcher{
		domain.ExchangeKalshi: stubFetcher{err: errors.New("venue down")},
		domain.ExchangeNadex: stubFetcher{payloads: map[string]string{
			"NDX.BTC-70000": nadexPayload("NDX.BTC-70000", 60, 58),
		}},
	}

	sc, snaps, edges, alerter := newTestScanner(t, fetchers, nil)
	sc.ScanOnce(context.Background())

	assert.Empty(t, snaps.recs)
	assert.Empty(t, edges.recs)
	assert.Empty(t, alerter.messages)
}

func TestPredictItFetcherSymbolSplit(t *testing.T) {
	f := PredictItFetcher{}
	_, err := f.Fetch(context.Background(), "not-numeric.8973")
	assert.ErrorContains(t, err, "market id is not numeric")
}

type publisherFunc func(domain.EdgeRecord)

func (f publisherFunc) PublishEdge(rec domain.EdgeRecord) { f(rec) }
