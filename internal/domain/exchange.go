package domain

import (
	"fmt"
	"strings"
)

// Exchange identifies a supported prediction-market venue.
type Exchange string

const (
	ExchangeKalshi    Exchange = "Kalshi"
	ExchangeNadex     Exchange = "Nadex"
	ExchangePredictIt Exchange = "PredictIt"
)

// Exchanges lists all supported venues in registry order.
var Exchanges = []Exchange{ExchangeKalshi, ExchangeNadex, ExchangePredictIt}

// ParseExchange resolves a venue name (any casing) to an Exchange. Unknown
// names return ErrUnsupportedVenue.
func ParseExchange(name string) (Exchange, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kalshi":
		return ExchangeKalshi, nil
	case "nadex":
		return ExchangeNadex, nil
	case "predictit":
		return ExchangePredictIt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVenue, name)
	}
}

// Valid reports whether the exchange is one of the supported venues.
func (e Exchange) Valid() bool {
	switch e {
	case ExchangeKalshi, ExchangeNadex, ExchangePredictIt:
		return true
	}
	return false
}

// Side is one of the two complementary outcomes of a binary contract.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Settlement describes how a market resolves.
type Settlement string

const (
	// SettlementBoolean resolves on a yes/no proposition.
	SettlementBoolean Settlement = "boolean"
	// SettlementPrice resolves against a numeric strike level.
	SettlementPrice Settlement = "price"
)
