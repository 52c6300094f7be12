package types

import "github.com/shopspring/decimal"

// Instrument is the static definition of a tradable symbol: its
// minimum price increment and minimum order size increment.
type Instrument struct {
	Symbol   Symbol
	TickSize decimal.Decimal
	LotSize  decimal.Decimal
}
