package normalize

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// nadexPayload is the contract detail shape returned by the Nadex client.
type nadexPayload struct {
	Contract *struct {
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		Expiry    string      `json:"expiry"`
		Strike    json.Number `json:"strike"`
		YesPrice  json.Number `json:"yes_price"`
		NoPrice   json.Number `json:"no_price"`
		YesVolume *int        `json:"yes_volume"`
		NoVolume  *int        `json:"no_volume"`
		UpdatedAt string      `json:"updated_at"`
	} `json:"contract"`
}

// nadexSnapshot normalizes a Nadex contract. Prices arrive in ticks (0-100);
// Nadex is the only venue exposing a numeric strike, which is carried through
// when present.
func nadexSnapshot(raw []byte) (domain.MarketSnapshot, error) {
	var p nadexPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeNadex, "payload", err)
	}
	if p.Contract == nil {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeNadex, "contract", nil)
	}
	c := p.Contract
	if c.ID == "" {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeNadex, "contract.id", nil)
	}
	if c.Name == "" {
		return domain.MarketSnapshot{}, parseError(domain.ExchangeNadex, "contract.name", nil)
	}

	expiry, err := parseTime(domain.ExchangeNadex, "contract.expiry", c.Expiry)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	var strike *decimal.Decimal
	if c.Strike != "" {
		d, err := parsePrice(domain.ExchangeNadex, "contract.strike", c.Strike)
		if err != nil {
			return domain.MarketSnapshot{}, err
		}
		if !d.IsZero() {
			strike = &d
		}
	}

	key, err := domain.NewEventKey(domain.ExchangeNadex, c.ID, c.Name, expiry, strike, domain.SettlementBoolean)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	ts, err := parseTime(domain.ExchangeNadex, "contract.updated_at", c.UpdatedAt)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	yesPrice, yesSize, err := nadexSide(c.YesPrice, c.YesVolume, "contract.yes_price")
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	noPrice, noSize, err := nadexSide(c.NoPrice, c.NoVolume, "contract.no_price")
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

// nadexSide resolves one side's tick price and volume. A missing price is the
// no-liquidity fallback; a missing volume defaults to 1 contract, which is
// how the feed reports thin books.
func nadexSide(price json.Number, volume *int, field string) (decimal.Decimal, int, error) {
	if price == "" {
		return decimal.Zero, 0, nil
	}
	ticks, err := parsePrice(domain.ExchangeNadex, field, price)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}
	size := 1
	if volume != nil {
		size = *volume
	}
	return centsToProb(ticks), size, nil
}
