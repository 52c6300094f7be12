package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is a single market-data snapshot for a symbol.
type Tick struct {
	Symbol    Symbol
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Last      decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
}

// IsStale reports whether the tick is older than threshold as of now.
func (t Tick) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(t.Timestamp) > threshold
}
