package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alanyoungcy/arbscan/internal/platform/kalshi"
	"github.com/alanyoungcy/arbscan/internal/platform/nadex"
	"github.com/alanyoungcy/arbscan/internal/platform/predictit"
)

// Per-venue Fetcher adapters. Each maps the registry's venue-native symbol
// onto the client call that returns the payload the normalizer expects.

// KalshiFetcher adapts the Kalshi client; the symbol is a market ticker.
type KalshiFetcher struct {
	Client *kalshi.Client
}

func (f KalshiFetcher) Fetch(ctx context.Context, symbol string) (json.RawMessage, error) {
	return f.Client.GetMarket(ctx, symbol)
}

// NadexFetcher adapts the Nadex client; the symbol is an instrument id.
type NadexFetcher struct {
	Client *nadex.Client
}

func (f NadexFetcher) Fetch(ctx context.Context, symbol string) (json.RawMessage, error) {
	return f.Client.GetContract(ctx, symbol)
}

// PredictItFetcher adapts the PredictIt client. The registry symbol is
// "<marketID>.<contractID>"; only the market id selects the fetch, the
// contract id is resolved by the normalizer.
type PredictItFetcher struct {
	Client *predictit.Client
}

func (f PredictItFetcher) Fetch(ctx context.Context, symbol string) (json.RawMessage, error) {
	marketPart := symbol
	for i := 0; i < len(symbol); i++ {
		if symbol[i] == '.' {
			marketPart = symbol[:i]
			break
		}
	}
	marketID, err := strconv.ParseInt(marketPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("predictit: symbol %q: market id is not numeric: %w", symbol, err)
	}
	return f.Client.GetMarket(ctx, marketID)
}
