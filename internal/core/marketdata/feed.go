// Package marketdata defines the market-data contract the engine
// facade consumes: a tick feed keyed by symbol. internal/marketdata/wsfeed
// provides the reference gorilla/websocket implementation.
package marketdata

import "github.com/pi5trading/tradecore/internal/core/types"

// TickHandler is invoked for every tick the feed receives.
type TickHandler func(types.Tick)

// Feed is the market-data contract (spec.md §6): subscribe/unsubscribe
// by symbol, and retrieve the last known tick without waiting on the
// stream.
type Feed interface {
	Connect() error
	Disconnect() error

	Subscribe(symbols []types.Symbol) error
	Unsubscribe(symbols []types.Symbol) error

	GetLatestTick(symbol types.Symbol) (types.Tick, bool)

	OnTick(handler TickHandler)

	IsConnected() bool
}
