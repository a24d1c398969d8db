// Package fees implements the per-venue fee model. Each venue charges a flat
// entry fee on acquisition plus a percentage fee on realized profit at close;
// AdjustedPrice folds both into a single all-in cost. All arithmetic is done
// in decimal to avoid cent-level float drift.
package fees

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

var one = decimal.NewFromInt(1)

// Schedule holds one venue's fee parameters.
type Schedule struct {
	// EntryFee is a flat decimal added to the cost of entering a position.
	EntryFee decimal.Decimal
	// ExitFeePct is the fraction of profit taken when the position closes.
	ExitFeePct decimal.Decimal
}

// Table is an immutable per-venue fee lookup. Venues absent from the table
// pay zero fees; that fallback is a product decision, not an error.
type Table struct {
	schedules map[string]Schedule
}

// NewTable builds a Table from explicit schedules. Keys are case-normalized,
// so "kalshi", "KALSHI", and "Kalshi" all address the same venue.
func NewTable(schedules map[string]Schedule) *Table {
	normalized := make(map[string]Schedule, len(schedules))
	for venue, s := range schedules {
		normalized[capitalize(venue)] = s
	}
	return &Table{schedules: normalized}
}

// Zero returns a table in which every venue pays zero fees.
func Zero() *Table {
	return &Table{schedules: map[string]Schedule{}}
}

// feeValue decodes a YAML scalar into a decimal from its literal text, so
// 0.02 stays exactly 0.02 rather than passing through a float64.
type feeValue struct {
	decimal.Decimal
}

func (f *feeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("fee value must be a scalar, got %s", node.Tag)
	}
	v := strings.TrimSpace(node.Value)
	if v == "" || node.Tag == "!!null" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fmt.Errorf("fee value %q: %w", node.Value, err)
	}
	f.Decimal = d
	return nil
}

// scheduleYAML is the on-disk shape of one venue's fees.
type scheduleYAML struct {
	EntryFee   feeValue `yaml:"entry_fee"`
	ExitFeePct feeValue `yaml:"exit_fee_pct"`
}

// Load reads a fee table from a YAML file keyed by venue name. A missing
// file yields a zero-fee table, since the scanner must be able to run
// without fee configuration. A present but malformed file is an error.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Zero(), nil
		}
		return nil, fmt.Errorf("fees: read %s: %w", path, err)
	}

	var raw map[string]scheduleYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fees: parse %s: %w", path, err)
	}

	schedules := make(map[string]Schedule, len(raw))
	for venue, s := range raw {
		schedules[venue] = Schedule{EntryFee: s.EntryFee.Decimal, ExitFeePct: s.ExitFeePct.Decimal}
	}
	return NewTable(schedules), nil
}

// Schedule returns the fee schedule for an exchange, falling back to zero
// fees when the venue has no entry.
func (t *Table) Schedule(exchange domain.Exchange) Schedule {
	if s, ok := t.schedules[capitalize(string(exchange))]; ok {
		return s
	}
	return Schedule{EntryFee: decimal.Zero, ExitFeePct: decimal.Zero}
}

// AdjustedPrice returns the all-in cost of acquiring one unit of side at
// rawPrice on exchange. For YES the entry cost is rawPrice plus the flat
// entry fee; for NO it is (1 - rawPrice) plus the fee. An entry cost above 1
// means the exposure is already unprofitable and the result is capped at
// exactly 1. Otherwise the exit fee on the maximum attainable profit is added
// on top.
func (t *Table) AdjustedPrice(exchange domain.Exchange, side domain.Side, rawPrice decimal.Decimal) decimal.Decimal {
	s := t.Schedule(exchange)

	if side == domain.SideYes {
		entryCost := rawPrice.Add(s.EntryFee)
		if entryCost.GreaterThan(one) {
			return one
		}
		profitFee := one.Sub(entryCost).Mul(s.ExitFeePct)
		return entryCost.Add(profitFee)
	}

	entryCost := one.Sub(rawPrice).Add(s.EntryFee)
	if entryCost.GreaterThan(one) {
		return one
	}
	profitFee := rawPrice.Mul(s.ExitFeePct)
	return entryCost.Add(profitFee)
}

// capitalize matches venue keys the way the fee file spells them: first rune
// upper, rest lower ("predictit" -> "Predictit").
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
