package normalize

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// predictItPayload is the market shape returned by the PredictIt client. The
// client guarantees a binary market, so only the first contract is read.
type predictItPayload struct {
	Market *struct {
		ID         json.Number         `json:"id"`
		DateCloses string              `json:"dateCloses"`
		DateEnd    string              `json:"dateEnd"`
		Contracts  []predictItContract `json:"contracts"`
	} `json:"market"`
}

type predictItContract struct {
	ID               json.Number  `json:"id"`
	Name             string       `json:"name"`
	BestBuyYesCost   *json.Number `json:"bestBuyYesCost"`
	BestBuyNoCost    *json.Number `json:"bestBuyNoCost"`
	BestBuyYesShares *int         `json:"bestBuyYesShares"`
	BestBuyNoShares  *int         `json:"bestBuyNoShares"`
	LastTradeTime    string       `json:"lastTradeTime"`
}

// predictItSnapshot normalizes a PredictIt market. Prices are already in the
// 0-1 probability scale and pass through unchanged.
func predictItSnapshot(raw []byte) (domain.MarketSnapshot, error) {
	var p predictItPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.MarketSnapshot{}, parseError(domain.ExchangePredictIt, "payload", err)
	}
	if p.Market == nil {
		return domain.MarketSnapshot{}, parseError(domain.ExchangePredictIt, "market", nil)
	}
	if len(p.Market.Contracts) == 0 {
		return domain.MarketSnapshot{}, parseError(domain.ExchangePredictIt, "market.contracts", nil)
	}
	c := p.Market.Contracts[0]
	if c.ID == "" || p.Market.ID == "" {
		return domain.MarketSnapshot{}, parseError(domain.ExchangePredictIt, "market.id", nil)
	}
	if c.Name == "" {
		return domain.MarketSnapshot{}, parseError(domain.ExchangePredictIt, "contracts[0].name", nil)
	}

	closes := p.Market.DateCloses
	if closes == "" {
		closes = p.Market.DateEnd
	}
	expiry, err := parseTime(domain.ExchangePredictIt, "market.dateCloses", closes)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	// Symbol is "<marketID>.<contractID>" so one registry entry pins both.
	symbol := p.Market.ID.String() + "." + c.ID.String()

	key, err := domain.NewEventKey(domain.ExchangePredictIt, symbol, c.Name, expiry, nil, domain.SettlementBoolean)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	ts, err := parseTime(domain.ExchangePredictIt, "contracts[0].lastTradeTime", c.LastTradeTime)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	yesPrice, yesSize, err := predictItSide(c.BestBuyYesCost, c.BestBuyYesShares, "contracts[0].bestBuyYesCost")
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	noPrice, noSize, err := predictItSide(c.BestBuyNoCost, c.BestBuyNoShares, "contracts[0].bestBuyNoCost")
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

// predictItSide resolves one side's cost and share count. PredictIt reports
// null costs when nobody is offering the side; that becomes the no-liquidity
// fallback. A missing share count defaults to 1.
func predictItSide(cost *json.Number, shares *int, field string) (decimal.Decimal, int, error) {
	if cost == nil || *cost == "" {
		return decimal.Zero, 0, nil
	}
	price, err := parsePrice(domain.ExchangePredictIt, field, *cost)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}
	size := 1
	if shares != nil {
		size = *shares
	}
	return price, size, nil
}
