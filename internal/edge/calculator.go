// Package edge computes the fee-adjusted arbitrage edge between two venue
// snapshots of the same event. The edge is the margin left after buying YES
// on one venue and NO on the other at their all-in prices.
package edge

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

var one = decimal.NewFromInt(1)

// TagResolver resolves a venue-native symbol to a canonical event tag. The
// registry implements it in production; tests inject a static map.
type TagResolver interface {
	TagFor(exchange domain.Exchange, symbol string) (string, bool)
}

// PriceAdjuster converts a raw probability into the all-in cost of the given
// side on the given exchange. The fee table implements it.
type PriceAdjuster interface {
	AdjustedPrice(exchange domain.Exchange, side domain.Side, rawPrice decimal.Decimal) decimal.Decimal
}

// StaticTagMap is a TagResolver backed by a fixed "Exchange:symbol" -> tag map.
type StaticTagMap map[string]string

// TagFor looks the symbol up under its "Exchange:symbol" key.
func (m StaticTagMap) TagFor(exchange domain.Exchange, symbol string) (string, bool) {
	tag, ok := m[string(exchange)+":"+symbol]
	return tag, ok
}

// Calculator computes cross-venue edges using a fee model and tag resolver.
// It is stateless and safe for concurrent use.
type Calculator struct {
	fees PriceAdjuster
	tags TagResolver
}

// NewCalculator creates a Calculator.
func NewCalculator(fees PriceAdjuster, tags TagResolver) *Calculator {
	return &Calculator{fees: fees, tags: tags}
}

// Direction describes the winning side assignment for a computed edge: buy
// YES on YesVenue at YesPrice (raw) and NO on NoVenue at NoPrice (raw).
type Direction struct {
	Tag      string
	YesVenue domain.Exchange
	YesPrice decimal.Decimal
	NoVenue  domain.Exchange
	NoPrice  decimal.Decimal
	Edge     decimal.Decimal
}

// CalcEdge returns the fee-adjusted edge between two snapshots of the same
// event, floored at zero: "no profitable combination" is exactly 0, never
// negative. Both snapshots must resolve to the same canonical tag; a missing
// tag or a mismatch is a caller bug (ErrMissingTag / ErrTagMismatch) and must
// not be retried.
func (c *Calculator) CalcEdge(a, b domain.MarketSnapshot) (decimal.Decimal, error) {
	if _, err := c.matchTags(a, b); err != nil {
		return decimal.Zero, err
	}
	edgeAB, edgeBA := c.strategyEdges(a, b)
	return decimal.Max(edgeAB, edgeBA, decimal.Zero), nil
}

// Direction re-derives which physical sides to trade for the edge CalcEdge
// reports. It applies the identical comparison rule (>= favors YES on the
// first snapshot's venue on ties) so the direction always explains the
// returned number.
func (c *Calculator) Direction(a, b domain.MarketSnapshot) (Direction, error) {
	tag, err := c.matchTags(a, b)
	if err != nil {
		return Direction{}, err
	}
	edgeAB, edgeBA := c.strategyEdges(a, b)
	edge := decimal.Max(edgeAB, edgeBA, decimal.Zero)

	if edgeAB.GreaterThanOrEqual(edgeBA) {
		return Direction{
			Tag:      tag,
			YesVenue: a.Key.Exchange,
			YesPrice: a.BestYes.Price,
			NoVenue:  b.Key.Exchange,
			NoPrice:  b.BestNo.Price,
			Edge:     edge,
		}, nil
	}
	return Direction{
		Tag:      tag,
		YesVenue: b.Key.Exchange,
		YesPrice: b.BestYes.Price,
		NoVenue:  a.Key.Exchange,
		NoPrice:  a.BestNo.Price,
		Edge:     edge,
	}, nil
}

// strategyEdges evaluates both cross strategies at all-in prices:
// YES on a / NO on b, and YES on b / NO on a.
func (c *Calculator) strategyEdges(a, b domain.MarketSnapshot) (edgeAB, edgeBA decimal.Decimal) {
	yesA := c.fees.AdjustedPrice(a.Key.Exchange, domain.SideYes, a.BestYes.Price)
	noA := c.fees.AdjustedPrice(a.Key.Exchange, domain.SideNo, a.BestNo.Price)
	yesB := c.fees.AdjustedPrice(b.Key.Exchange, domain.SideYes, b.BestYes.Price)
	noB := c.fees.AdjustedPrice(b.Key.Exchange, domain.SideNo, b.BestNo.Price)

	edgeAB = one.Sub(yesA).Sub(noB)
	edgeBA = one.Sub(yesB).Sub(noA)
	return edgeAB, edgeBA
}

func (c *Calculator) matchTags(a, b domain.MarketSnapshot) (string, error) {
	tagA, okA := c.tags.TagFor(a.Key.Exchange, a.Key.Symbol)
	tagB, okB := c.tags.TagFor(b.Key.Exchange, b.Key.Symbol)
	if !okA {
		return "", fmt.Errorf("%w: %s %s", domain.ErrMissingTag, a.Key.Exchange, a.Key.Symbol)
	}
	if !okB {
		return "", fmt.Errorf("%w: %s %s", domain.ErrMissingTag, b.Key.Exchange, b.Key.Symbol)
	}
	if tagA != tagB {
		return "", fmt.Errorf("%w: %q vs %q", domain.ErrTagMismatch, tagA, tagB)
	}
	return tagA, nil
}
