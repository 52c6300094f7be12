package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the net holding and P&L state for one symbol. Quantity
// is signed: positive is long, negative is short, zero is flat.
type Position struct {
	Symbol        Symbol
	Quantity      decimal.Decimal
	AverageCost   decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	LastUpdated   time.Time
}

// NewPosition returns a flat position for symbol.
func NewPosition(symbol Symbol, now time.Time) *Position {
	return &Position{
		Symbol:        symbol,
		Quantity:      decimal.Zero,
		AverageCost:   decimal.Zero,
		RealizedPnL:   decimal.Zero,
		UnrealizedPnL: decimal.Zero,
		LastUpdated:   now,
	}
}

// IsFlat reports whether the position carries no quantity.
func (p *Position) IsFlat() bool {
	return p.Quantity.IsZero()
}

// IsLong reports whether the position is net long.
func (p *Position) IsLong() bool {
	return p.Quantity.Sign() > 0
}

// IsShort reports whether the position is net short.
func (p *Position) IsShort() bool {
	return p.Quantity.Sign() < 0
}
