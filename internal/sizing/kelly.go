// Package sizing converts a detected edge into a stake fraction using the
// Kelly criterion.
package sizing

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// divScale is the number of decimal places kept by the Kelly division, well
// above the six significant digits the rest of the pipeline guarantees.
const divScale = 8

var one = decimal.NewFromInt(1)

// Fraction returns the Kelly fraction in [0,1] for a binary bet with the
// given edge and payout odds (e.g. 1.08 means an 8% return on stake).
// A non-positive edge stakes nothing regardless of the odds. A positive
// edge at odds of exactly 1 would divide by zero and fails with
// ErrDegenerateOdds instead of producing infinity.
func Fraction(edge, odds decimal.Decimal) (decimal.Decimal, error) {
	if edge.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	if odds.Equal(one) {
		return decimal.Zero, domain.ErrDegenerateOdds
	}

	// f = (edge * odds) / (odds - 1), clamped to 1.
	f := edge.Mul(odds).DivRound(odds.Sub(one), divScale)
	if f.GreaterThan(one) {
		return one, nil
	}
	return f, nil
}
