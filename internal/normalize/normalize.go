// Package normalize converts raw venue payloads into canonical market
// snapshots. One handler exists per supported venue; dispatch is a tagged
// switch over the exchange enum so an unknown venue fails loudly instead of
// silently missing a map lookup.
//
// Venue price scales are converted to probabilities here: Kalshi and Nadex
// quote in cents/ticks (divided by 100), PredictIt already quotes in 0-1.
// A side with no quote becomes price 0 / size 0 rather than a failure, and
// callers must treat it as "no liquidity" (see
// domain.MarketSnapshot.DegradedSides).
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// now is stubbed in tests to make timestamp fallbacks deterministic.
var now = time.Now

// Snapshot converts a raw venue payload into a canonical MarketSnapshot.
// The transform is pure: no I/O, no retained state. Malformed or missing
// required fields fail with a *domain.ParseError naming the venue and field;
// an unknown venue fails with domain.ErrUnsupportedVenue.
func Snapshot(raw []byte, venue domain.Exchange) (domain.MarketSnapshot, error) {
	switch venue {
	case domain.ExchangeKalshi:
		return kalshiSnapshot(raw)
	case domain.ExchangeNadex:
		return nadexSnapshot(raw)
	case domain.ExchangePredictIt:
		return predictItSnapshot(raw)
	default:
		return domain.MarketSnapshot{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedVenue, venue)
	}
}

// parseError wraps a field problem with its venue.
func parseError(venue domain.Exchange, field string, err error) *domain.ParseError {
	return &domain.ParseError{Venue: venue, Field: field, Err: err}
}

// parsePrice converts a JSON number literal to a decimal without passing
// through float64, keeping venue prices exact.
func parsePrice(venue domain.Exchange, field string, n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, parseError(venue, field, err)
	}
	return d, nil
}

// parseTime parses an RFC 3339 timestamp. An empty string falls back to the
// current time (venues may omit timestamps); a present but malformed or
// offset-less string is a parse failure.
func parseTime(venue domain.Exchange, field, s string) (time.Time, error) {
	if s == "" {
		return now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, parseError(venue, field, err)
	}
	return t.UTC(), nil
}

// centsToProb converts a cents/ticks quote (0-100) to a probability (0-1).
// Shifting the decimal point is exact; no rounding occurs.
func centsToProb(cents decimal.Decimal) decimal.Decimal {
	return cents.Shift(-2)
}
