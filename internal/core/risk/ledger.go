package risk

import (
	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/types"
)

// Snapshot is the consistent view of portfolio state the validator
// checks a request against. It is a read-only copy; the validator
// never mutates it and the caller takes it under a single read lock
// over the live ledger (see tradingengine), per spec.md §5.
type Snapshot struct {
	Positions          map[types.Symbol]types.Position
	LatestPrice        map[types.Symbol]decimal.Decimal
	DailyRealizedPnL   decimal.Decimal
	DailyUnrealizedPnL decimal.Decimal
}

// PortfolioNotional sums |position_qty * avg_cost| across all symbols.
func (s Snapshot) PortfolioNotional() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range s.Positions {
		total = total.Add(pos.Quantity.Abs().Mul(pos.AverageCost).Abs())
	}
	return total
}

// PositionQuantity returns the current signed quantity for symbol, or
// zero if no position exists yet.
func (s Snapshot) PositionQuantity(symbol types.Symbol) decimal.Decimal {
	if pos, ok := s.Positions[symbol]; ok {
		return pos.Quantity
	}
	return decimal.Zero
}
