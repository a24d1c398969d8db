// Package domain defines the canonical data model shared by the normalizers,
// fee model, edge calculator, and persistence layers. Everything here is an
// immutable value type: snapshots are created fresh each poll cycle and
// discarded after edge computation, so no locking is ever required.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// EventKey identifies one logical event on one venue.
type EventKey struct {
	Exchange   Exchange         `json:"exchange"`
	Symbol     string           `json:"symbol"`
	Question   string           `json:"question"`
	Expiry     time.Time        `json:"expiry"`
	Strike     *decimal.Decimal `json:"strike,omitempty"`
	Settlement Settlement       `json:"settlement"`
}

// NewEventKey constructs a validated EventKey. The expiry must carry real
// wall-clock information; a zero time (the Go analogue of a naive timestamp,
// since RFC 3339 parsing upstream already rejects offset-less strings) fails
// construction. The expiry is normalized to UTC.
func NewEventKey(exchange Exchange, symbol, question string, expiry time.Time, strike *decimal.Decimal, settlement Settlement) (EventKey, error) {
	if !exchange.Valid() {
		return EventKey{}, fmt.Errorf("%w: %q", ErrUnsupportedVenue, exchange)
	}
	if expiry.IsZero() {
		return EventKey{}, &ValidationError{Field: "expiry", Reason: "timestamp must carry timezone information"}
	}
	if settlement == "" {
		settlement = SettlementBoolean
	}
	return EventKey{
		Exchange:   exchange,
		Symbol:     symbol,
		Question:   question,
		Expiry:     expiry.UTC(),
		Strike:     strike,
		Settlement: settlement,
	}, nil
}

// Quote is one side's best price: a probability in [0,1] with contract size.
type Quote struct {
	Side  Side            `json:"side"`
	Price decimal.Decimal `json:"price"`
	Size  int             `json:"size"`
	TS    time.Time       `json:"ts"`
}

// NewQuote constructs a validated Quote. Price outside [0,1], negative size,
// or a zero timestamp fail with a ValidationError.
func NewQuote(side Side, price decimal.Decimal, size int, ts time.Time) (Quote, error) {
	if side != SideYes && side != SideNo {
		return Quote{}, &ValidationError{Field: "side", Reason: fmt.Sprintf("must be YES or NO, got %q", side)}
	}
	if price.IsNegative() || price.GreaterThan(one) {
		return Quote{}, &ValidationError{Field: "price", Reason: fmt.Sprintf("must be between 0 and 1, got %s", price)}
	}
	if size < 0 {
		return Quote{}, &ValidationError{Field: "size", Reason: fmt.Sprintf("must be non-negative, got %d", size)}
	}
	if ts.IsZero() {
		return Quote{}, &ValidationError{Field: "ts", Reason: "timestamp must carry timezone information"}
	}
	return Quote{Side: side, Price: price, Size: size, TS: ts.UTC()}, nil
}

// MarketSnapshot is a venue's point-in-time state for one event.
type MarketSnapshot struct {
	Key     EventKey `json:"key"`
	BestYes Quote    `json:"best_yes"`
	BestNo  Quote    `json:"best_no"`
}

// NewMarketSnapshot constructs a validated MarketSnapshot. The yes quote must
// carry the YES side and the no quote the NO side.
func NewMarketSnapshot(key EventKey, bestYes, bestNo Quote) (MarketSnapshot, error) {
	if bestYes.Side != SideYes {
		return MarketSnapshot{}, &ValidationError{Field: "best_yes", Reason: fmt.Sprintf("quote must have YES side, found %s", bestYes.Side)}
	}
	if bestNo.Side != SideNo {
		return MarketSnapshot{}, &ValidationError{Field: "best_no", Reason: fmt.Sprintf("quote must have NO side, found %s", bestNo.Side)}
	}
	return MarketSnapshot{Key: key, BestYes: bestYes, BestNo: bestNo}, nil
}

// DegradedSides reports which sides were filled with the zero-price/zero-size
// fallback because the venue exposed no quote. A degraded snapshot is "no
// liquidity", not a real tight market; callers should log it rather than
// trade on it.
func (s MarketSnapshot) DegradedSides() []Side {
	var sides []Side
	if s.BestYes.Price.IsZero() && s.BestYes.Size == 0 {
		sides = append(sides, SideYes)
	}
	if s.BestNo.Price.IsZero() && s.BestNo.Size == 0 {
		sides = append(sides, SideNo)
	}
	return sides
}

// Degraded reports whether either side was filled by the no-liquidity fallback.
func (s MarketSnapshot) Degraded() bool {
	return len(s.DegradedSides()) > 0
}

// DecodeSnapshot unmarshals a canonical snapshot from JSON and re-validates
// every schema invariant, so a decoded snapshot is as trustworthy as a
// constructed one. Decimal prices and timezone-aware timestamps survive the
// round trip exactly (prices serialize as strings, times as RFC 3339).
func DecodeSnapshot(data []byte) (MarketSnapshot, error) {
	var raw MarketSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return MarketSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	key, err := NewEventKey(raw.Key.Exchange, raw.Key.Symbol, raw.Key.Question, raw.Key.Expiry, raw.Key.Strike, raw.Key.Settlement)
	if err != nil {
		return MarketSnapshot{}, err
	}
	yes, err := NewQuote(raw.BestYes.Side, raw.BestYes.Price, raw.BestYes.Size, raw.BestYes.TS)
	if err != nil {
		return MarketSnapshot{}, err
	}
	no, err := NewQuote(raw.BestNo.Side, raw.BestNo.Price, raw.BestNo.Size, raw.BestNo.TS)
	if err != nil {
		return MarketSnapshot{}, err
	}
	return NewMarketSnapshot(key, yes, no)
}
