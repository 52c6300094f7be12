package queue

import "github.com/pi5trading/tradecore/internal/core/types"

// NewOrderEvent carries an accepted order into the matching worker.
type NewOrderEvent struct {
	Order *types.Order
}

// CancelEvent requests cancellation of a working order by id.
type CancelEvent struct {
	OrderID types.OrderID
}

// ExecuteEvent force-executes an order at a given price, bypassing the
// book. Used by tests to drive deterministic fills without needing a
// resting counterparty.
type ExecuteEvent struct {
	OrderID types.OrderID
	Price   types.Price
}

// MarketTickEvent delivers a market-data tick into the worker, which
// updates the last-price reference used by risk and position marking.
type MarketTickEvent struct {
	Tick types.Tick
}
