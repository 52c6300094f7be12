// Package store defines the persistence contract the engine facade
// depends on (spec.md §6). The core never imports a concrete database
// driver; internal/store/postgres provides the reference
// implementation.
package store

import (
	"time"

	"github.com/pi5trading/tradecore/internal/core/types"
)

// Store is the persistence boundary. Implementations must make
// SaveOrder and SaveTrade idempotent on their respective ids and
// UpsertPosition idempotent on symbol, since the worker may redeliver
// the same event after a restart.
type Store interface {
	SaveOrder(order types.Order) error
	SaveTrade(trade types.Trade) error
	UpsertPosition(position types.Position) error

	LoadPositions() ([]types.Position, error)
	LoadTradesByDay(day time.Time) ([]types.Trade, error)
	LoadOrdersByDay(day time.Time) ([]types.Order, error)

	IsAvailable() bool
	Status() string
}

// Noop discards everything and always reports available. It is the
// zero-configuration Store used by tests and by callers that run the
// engine without durability.
type Noop struct{}

func (Noop) SaveOrder(types.Order) error                      { return nil }
func (Noop) SaveTrade(types.Trade) error                      { return nil }
func (Noop) UpsertPosition(types.Position) error              { return nil }
func (Noop) LoadPositions() ([]types.Position, error)         { return nil, nil }
func (Noop) LoadTradesByDay(time.Time) ([]types.Trade, error) { return nil, nil }
func (Noop) LoadOrdersByDay(time.Time) ([]types.Order, error) { return nil, nil }
func (Noop) IsAvailable() bool                                { return true }
func (Noop) Status() string                                   { return "noop" }
