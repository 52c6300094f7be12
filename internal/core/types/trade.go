package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one execution leg of a cross. A single cross produces two
// trades sharing a MatchID: one with IsAggressor true (the incoming
// order that triggered the match) and one with IsAggressor false (the
// resting order), per the original matching engine's behavior of
// emitting a TradeExecutionEvent for each side.
type Trade struct {
	ID          TradeID
	MatchID     MatchID
	OrderID     OrderID
	Symbol      Symbol
	Side        Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	IsAggressor bool
	ExecutedAt  time.Time
}
