package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotRecord is the persisted form of one venue's prices for one tag.
type SnapshotRecord struct {
	ID       uuid.UUID       `json:"id"`
	Tag      string          `json:"tag"`
	Exchange Exchange        `json:"exchange"`
	YesPrice decimal.Decimal `json:"yes_price"`
	NoPrice  decimal.Decimal `json:"no_price"`
	TS       time.Time       `json:"ts"`
}

// EdgeRecord is the persisted form of one fee-adjusted edge computation. The
// yes/no exchanges name the winning direction: buy YES on YesExchange and NO
// on NoExchange.
type EdgeRecord struct {
	ID          uuid.UUID       `json:"id"`
	Tag         string          `json:"tag"`
	YesExchange Exchange        `json:"yes_exchange"`
	NoExchange  Exchange        `json:"no_exchange"`
	Edge        decimal.Decimal `json:"edge"`
	TS          time.Time       `json:"ts"`
}
