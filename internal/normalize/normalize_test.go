package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

func stubNow(t *testing.T, fixed time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })
}

func TestSnapshotKalshi(t *testing.T) {
	raw := []byte(`{
		"event": {"close_time": "2025-05-31T16:00:00Z"},
		"market": {
			"ticker": "BTC-31MAY70K",
			"title": "Bitcoin above $70k on May 31?",
			"close_time": "2025-05-31T12:00:00Z",
			"yes_bids": [{"price": 62, "size": 150}, {"price": 61, "size": 40}],
			"no_bids": [{"price": 37, "size": 80}]
		},
		"timestamp": "2025-05-30T10:15:00Z"
	}`)

	snap, err := Snapshot(raw, domain.ExchangeKalshi)
	require.NoError(t, err)

	assert.Equal(t, domain.ExchangeKalshi, snap.Key.Exchange)
	assert.Equal(t, "BTC-31MAY70K", snap.Key.Symbol)
	assert.Equal(t, "Bitcoin above $70k on May 31?", snap.Key.Question)
	// Event close time wins over the market's own close time.
	assert.Equal(t, time.Date(2025, 5, 31, 16, 0, 0, 0, time.UTC), snap.Key.Expiry)
	assert.Nil(t, snap.Key.Strike)
	assert.Equal(t, domain.SettlementBoolean, snap.Key.Settlement)

	assert.True(t, snap.BestYes.Price.Equal(decimal.RequireFromString("0.62")), "got %s", snap.BestYes.Price)
	assert.Equal(t, 150, snap.BestYes.Size)
	assert.True(t, snap.BestNo.Price.Equal(decimal.RequireFromString("0.37")), "got %s", snap.BestNo.Price)
	assert.Equal(t, 80, snap.BestNo.Size)
	assert.Equal(t, time.Date(2025, 5, 30, 10, 15, 0, 0, time.UTC), snap.BestYes.TS)
	assert.False(t, snap.Degraded())
}

func TestSnapshotKalshiMarketCloseTimeFallback(t *testing.T) {
	raw := []byte(`{
		"market": {
			"ticker": "FED-JUN25",
			"title": "Fed cuts in June?",
			"close_time": "2025-06-18T18:00:00Z",
			"yes_bids": [{"price": 30, "size": 10}],
			"no_bids": [{"price": 68, "size": 10}]
		},
		"timestamp": "2025-06-01T00:00:00Z"
	}`)

	snap, err := Snapshot(raw, domain.ExchangeKalshi)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 18, 18, 0, 0, 0, time.UTC), snap.Key.Expiry)
}

func TestSnapshotKalshiEmptyBookFallback(t *testing.T) {
	raw := []byte(`{
		"market": {
			"ticker": "THIN-MKT",
			"title": "Thin market?",
			"close_time": "2025-06-18T18:00:00Z",
			"yes_bids": [{"price": 55, "size": 20}],
			"no_bids": []
		},
		"timestamp": "2025-06-01T00:00:00Z"
	}`)

	snap, err := Snapshot(raw, domain.ExchangeKalshi)
	require.NoError(t, err)

	assert.True(t, snap.BestNo.Price.IsZero())
	assert.Zero(t, snap.BestNo.Size)
	assert.True(t, snap.Degraded())
	assert.Equal(t, []domain.Side{domain.SideNo}, snap.DegradedSides())
}

func TestSnapshotKalshiMissingFields(t *testing.T) {
	for _, tc := range []struct {
		name  string
		raw   string
		field string
	}{
		{"no market", `{"timestamp": "2025-06-01T00:00:00Z"}`, "market"},
		{"no ticker", `{"market": {"title": "x?"}}`, "market.ticker"},
		{"no title", `{"market": {"ticker": "X"}}`, "market.title"},
		{"bad json", `{`, "payload"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Snapshot([]byte(tc.raw), domain.ExchangeKalshi)
			var perr *domain.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, domain.ExchangeKalshi, perr.Venue)
			assert.Equal(t, tc.field, perr.Field)
		})
	}
}

func TestSnapshotKalshiTimestampFallsBackToNow(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	stubNow(t, fixed)

	raw := []byte(`{
		"market": {
			"ticker": "X",
			"title": "x?",
			"close_time": "2025-06-18T18:00:00Z",
			"yes_bids": [{"price": 50, "size": 1}],
			"no_bids": [{"price": 50, "size": 1}]
		}
	}`)

	snap, err := Snapshot(raw, domain.ExchangeKalshi)
	require.NoError(t, err)
	assert.Equal(t, fixed, snap.BestYes.TS)
}

func TestSnapshotNadex(t *testing.T) {
	raw := []byte(`{
		"contract": {
			"id": "NDX.BTC-70000-31MAY",
			"name": "BTC > 70000 (3pm)",
			"expiry": "2025-05-31T15:00:00-04:00",
			"strike": 70000,
			"yes_price": 64.5,
			"no_price": 38,
			"yes_volume": 25,
			"no_volume": 12,
			"updated_at": "2025-05-30T10:00:00Z"
		}
	}`)

	snap, err := Snapshot(raw, domain.ExchangeNadex)
	require.NoError(t, err)

	assert.Equal(t, domain.ExchangeNadex, snap.Key.Exchange)
	assert.Equal(t, "NDX.BTC-70000-31MAY", snap.Key.Symbol)
	// Offsets are normalized to UTC.
	assert.Equal(t, time.Date(2025, 5, 31, 19, 0, 0, 0, time.UTC), snap.Key.Expiry)
	require.NotNil(t, snap.Key.Strike)
	assert.True(t, snap.Key.Strike.Equal(decimal.NewFromInt(70000)))

	assert.True(t, snap.BestYes.Price.Equal(decimal.RequireFromString("0.645")), "got %s", snap.BestYes.Price)
	assert.Equal(t, 25, snap.BestYes.Size)
	assert.True(t, snap.BestNo.Price.Equal(decimal.RequireFromString("0.38")), "got %s", snap.BestNo.Price)
	assert.Equal(t, 12, snap.BestNo.Size)
}

func TestSnapshotNadexDefaults(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	stubNow(t, fixed)

	// No strike, no volumes, no prices on the no side, no timestamps.
	raw := []byte(`{
		"contract": {
			"id": "NDX.X",
			"name": "x?",
			"yes_price": 50
		}
	}`)

	snap, err := Snapshot(raw, domain.ExchangeNadex)
	require.NoError(t, err)

	assert.Nil(t, snap.Key.Strike)
	assert.Equal(t, fixed, snap.Key.Expiry)
	assert.Equal(t, fixed, snap.BestYes.TS)
	assert.Equal(t, 1, snap.BestYes.Size, "missing volume defaults to one contract")
	assert.True(t, snap.BestNo.Price.IsZero())
	assert.Zero(t, snap.BestNo.Size)
	assert.Equal(t, []domain.Side{domain.SideNo}, snap.DegradedSides())
}

func TestSnapshotNadexMissingFields(t *testing.T) {
	for _, tc := range []struct {
		name  string
		raw   string
		field string
	}{
		{"no contract", `{}`, "contract"},
		{"no id", `{"contract": {"name": "x?"}}`, "contract.id"},
		{"no name", `{"contract": {"id": "NDX.X"}}`, "contract.name"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Snapshot([]byte(tc.raw), domain.ExchangeNadex)
			var perr *domain.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, domain.ExchangeNadex, perr.Venue)
			assert.Equal(t, tc.field, perr.Field)
		})
	}
}

func TestSnapshotPredictIt(t *testing.T) {
	raw := []byte(`{
		"market": {
			"id": 7057,
			"dateCloses": "2025-06-30T23:59:00Z",
			"contracts": [{
				"id": 8973,
				"name": "Will the Fed cut rates in June?",
				"bestBuyYesCost": 0.31,
				"bestBuyNoCost": 0.71,
				"bestBuyYesShares": 340,
				"bestBuyNoShares": 120,
				"lastTradeTime": "2025-06-01T14:00:00Z"
			}]
		}
	}`)

	snap, err := Snapshot(raw, domain.ExchangePredictIt)
	require.NoError(t, err)

	assert.Equal(t, domain.ExchangePredictIt, snap.Key.Exchange)
	assert.Equal(t, "7057.8973", snap.Key.Symbol)
	assert.Equal(t, "Will the Fed cut rates in June?", snap.Key.Question)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC), snap.Key.Expiry)

	// PredictIt already quotes probabilities, so prices pass through.
	assert.True(t, snap.BestYes.Price.Equal(decimal.RequireFromString("0.31")), "got %s", snap.BestYes.Price)
	assert.Equal(t, 340, snap.BestYes.Size)
	assert.True(t, snap.BestNo.Price.Equal(decimal.RequireFromString("0.71")), "got %s", snap.BestNo.Price)
	assert.Equal(t, 120, snap.BestNo.Size)
}

func TestSnapshotPredictItDefaults(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	stubNow(t, fixed)

	// Null no-side cost, no share counts, dateEnd instead of dateCloses,
	// no trade timestamp.
	raw := []byte(`{
		"market": {
			"id": 7057,
			"dateEnd": "2025-06-30T23:59:00Z",
			"contracts": [{
				"id": 8973,
				"name": "Will the Fed cut rates in June?",
				"bestBuyYesCost": 0.31,
				"bestBuyNoCost": null
			}]
		}
	}`)

	snap, err := Snapshot(raw, domain.ExchangePredictIt)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC), snap.Key.Expiry)
	assert.Equal(t, fixed, snap.BestYes.TS)
	assert.Equal(t, 1, snap.BestYes.Size, "missing share count defaults to one")
	assert.True(t, snap.BestNo.Price.IsZero())
	assert.Zero(t, snap.BestNo.Size)
	assert.Equal(t, []domain.Side{domain.SideNo}, snap.DegradedSides())
}

func TestSnapshotPredictItMissingFields(t *testing.T) {
	for _, tc := range []struct {
		name  string
		raw   string
		field string
	}{
		{"no market", `{}`, "market"},
		{"no contracts", `{"market": {"id": 1, "contracts": []}}`, "market.contracts"},
		{"no ids", `{"market": {"contracts": [{"name": "x?"}]}}`, "market.id"},
		{"no name", `{"market": {"id": 1, "contracts": [{"id": 2}]}}`, "contracts[0].name"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Snapshot([]byte(tc.raw), domain.ExchangePredictIt)
			var perr *domain.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, domain.ExchangePredictIt, perr.Venue)
			assert.Equal(t, tc.field, perr.Field)
		})
	}
}

func TestSnapshotRejectsOffsetlessTimestamp(t *testing.T) {
	raw := []byte(`{
		"market": {
			"ticker": "X",
			"title": "x?",
			"close_time": "2025-06-18T18:00:00",
			"yes_bids": [],
			"no_bids": []
		}
	}`)

	_, err := Snapshot(raw, domain.ExchangeKalshi)
	var perr *domain.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "close_time", perr.Field)
}

func TestSnapshotUnsupportedVenue(t *testing.T) {
	_, err := Snapshot([]byte(`{}`), domain.Exchange("Betfair"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedVenue)
}
