package normalize

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// kalshiPayload is the raw shape the Kalshi client hands over: the market
// body plus, when available, its parent event and a capture timestamp.
type kalshiPayload struct {
	Event *struct {
		CloseTime string `json:"close_time"`
	} `json:"event"`
	Market *struct {
		Ticker    string      `json:"ticker"`
		Title     string      `json:"title"`
		CloseTime string      `json:"close_time"`
		YesBids   []kalshiBid `json:"yes_bids"`
		NoBids    []kalshiBid `json:"no_bids"`
	} `json:"market"`
	Timestamp string `json:"timestamp"`
}

type kalshiBid struct {
	Price json.Number `json:"price"`
	Size  int         `json:"size"`
}

// kalshiSnapshot normalizes a Kalshi payload. Prices arrive in cents (0-100).
func kalshiSnapshot(raw []byte) (domain.MarketSnapshot, error) {
	var p kalshiPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeKalshi, "payload", err)
	}
	if p.Market == nil {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeKalshi, "market", nil)
	}
	if p.Market.Ticker == "" {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeKalshi, "market.ticker", nil)
	}
	if p.Market.Title == "" {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeKalshi, "market.title", nil)
	}

	// Expiry comes from the parent event when the client fetched it, else
	// from the market itself, else "now".
	closeTime := p.Market.CloseTime
	if p.Event != nil && p.Event.CloseTime != "" {
		closeTime = p.Event.CloseTime
	}
	expiry, err := parseTime(domain.ExchangeKalshi, "close_time", closeTime)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	key, err := domain.NewEventKey(domain.ExchangeKalshi, p.Market.Ticker, p.Market.Title, expiry, nil, domain.SettlementBoolean)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	ts, err := parseTime(domain.ExchangeKalshi, "timestamp", p.Timestamp)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	yesPrice, yesSize, err := bestKalshiBid(p.Market.YesBids, "yes_bids")
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	noPrice, noSize, err := bestKalshiBid(p.Market.NoBids, "no_bids")
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	bestYes, err := domain.NewQuote(domain.SideYes, yesPrice, yesSize, ts)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	bestNo, err := domain.NewQuote(domain.SideNo, noPrice, noSize, ts)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	return domain.NewMarketSnapshot(key, bestYes, bestNo)
}

// bestKalshiBid takes the top of a bid array, falling back to the
// zero-price/zero-size "no liquidity" quote when the side is empty.
func bestKalshiBid(bids []kalshiBid, field string) (decimal.Decimal, int, error) {
	if len(bids) == 0 {
		return decimal.Zero, 0, nil
	}
	cents, err := parsePrice(domain.ExchangeKalshi, field+".price", bids[0].Price)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}
	return centsToProb(cents), bids[0].Size, nil
}
