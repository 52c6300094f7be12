// Package matching implements the event-driven matching engine: it
// owns the order book and the order index, and is the sole mutator of
// both. It is driven synchronously by tradingengine's single worker —
// this package has no goroutines of its own, matching spec.md §5's
// "exactly one worker" requirement by construction rather than by
// internal locking.
package matching

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pi5trading/tradecore/internal/core/book"
	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/types"
)

// Engine owns every resting order's book membership and is the single
// authority over order state transitions once an order has been
// accepted. Query methods take a read lock; mutation methods
// (Submit/Cancel/Execute) are expected to be called only from the
// owning worker goroutine, never concurrently with each other.
type Engine struct {
	logger zerolog.Logger
	ids    *types.IDGenerator

	mu      sync.RWMutex
	books   map[types.Symbol]*book.Book
	orders  map[types.OrderID]*types.Order
	handles map[types.OrderID]book.Handle
}

func New(logger zerolog.Logger, ids *types.IDGenerator) *Engine {
	return &Engine{
		logger:  logger,
		ids:     ids,
		books:   map[types.Symbol]*book.Book{},
		orders:  map[types.OrderID]*types.Order{},
		handles: map[types.OrderID]book.Handle{},
	}
}

func (e *Engine) bookFor(symbol types.Symbol) *book.Book {
	b, ok := e.books[symbol]
	if !ok {
		b = book.New()
		e.books[symbol] = b
	}
	return b
}

// Submit matches o against the resting book, mutating o and the book
// in place, and returns the trades produced. o must already be in
// ACCEPTED status (the facade accepts before enqueueing, per
// spec.md §4.6). Residual quantity on a LIMIT order rests; a MARKET
// order's residual is canceled with "Insufficient liquidity".
func (e *Engine) Submit(o *types.Order, now time.Time) []types.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.orders[o.ID] = o
	trades := e.cross(o, now)

	if o.RemainingQuantity().Sign() > 0 {
		switch o.Type {
		case types.OrderTypeLimit:
			h := e.bookFor(o.Symbol).Rest(o.Side, o.LimitPrice, o.ID)
			e.handles[o.ID] = h
		case types.OrderTypeMarket:
			_ = o.Cancel(now)
			o.RejectionReason = "Insufficient liquidity"
		}
	}
	return trades
}

// cross walks the opposite side of o's book while prices cross,
// peeling quantity from the front of each level's FIFO and producing
// two trades per peel (aggressor + resting), per
// original_source/src/trading/MatchingEngine.cpp.
func (e *Engine) cross(o *types.Order, now time.Time) []types.Trade {
	var trades []types.Trade
	b := e.bookFor(o.Symbol)

	for o.RemainingQuantity().Sign() > 0 {
		level, ok := b.BestOpposite(o.Side)
		if !ok {
			break
		}
		if !e.crosses(o, level.Price) {
			break
		}

		restingID, ok := level.Front()
		if !ok {
			b.DeleteLevelIfEmpty(opposite(o.Side), level.Price)
			break
		}
		resting, ok := e.orders[restingID]
		if !ok {
			// Index lost track of a resting id; drop it defensively and
			// continue rather than getting stuck on a dangling FIFO node.
			level.PopFront()
			continue
		}

		execQty := minDecimal(o.RemainingQuantity(), resting.RemainingQuantity())
		execPrice := level.Price

		matchID := types.NewMatchID()
		aggTrade := e.makeTrade(matchID, o, execQty, execPrice, true, now)
		restTrade := e.makeTrade(matchID, resting, execQty, execPrice, false, now)
		trades = append(trades, aggTrade, restTrade)

		_ = o.Fill(execQty, execPrice, now)
		_ = resting.Fill(execQty, execPrice, now)

		if resting.RemainingQuantity().Sign() == 0 {
			level.PopFront()
			delete(e.handles, resting.ID)
		}
		if level.Len() == 0 {
			b.DeleteLevelIfEmpty(opposite(o.Side), level.Price)
		}
	}
	return trades
}

func (e *Engine) makeTrade(matchID types.MatchID, o *types.Order, qty, price types.Price, isAggressor bool, now time.Time) types.Trade {
	return types.Trade{
		ID:          e.ids.NextTradeID(now),
		MatchID:     matchID,
		OrderID:     o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Quantity:    qty,
		Price:       price,
		IsAggressor: isAggressor,
		ExecutedAt:  now,
	}
}

// crosses reports whether incoming order o would cross against a
// resting level at restingPrice.
func (e *Engine) crosses(o *types.Order, restingPrice types.Price) bool {
	if o.Type == types.OrderTypeMarket {
		return true
	}
	if o.Side == types.SideBuy {
		return o.LimitPrice.GreaterThanOrEqual(restingPrice)
	}
	return o.LimitPrice.LessThanOrEqual(restingPrice)
}

// Cancel removes o from its book level and transitions it to
// CANCELED. Returns NotFound or NotCancelable as appropriate.
func (e *Engine) Cancel(id types.OrderID, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[id]
	if !ok {
		return engineerr.New(engineerr.NotFound, "unknown order id "+string(id))
	}
	if !o.IsCancelable() {
		return engineerr.New(engineerr.NotCancelable, "order "+string(id)+" is not cancelable")
	}
	if h, ok := e.handles[id]; ok {
		e.bookFor(o.Symbol).Remove(h)
		delete(e.handles, id)
	}
	return o.Cancel(now)
}

// Execute force-fills an order at price, bypassing the book. Used by
// tests to drive deterministic fills without a resting counterparty.
func (e *Engine) Execute(id types.OrderID, price types.Price, now time.Time) ([]types.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[id]
	if !ok {
		return nil, engineerr.New(engineerr.NotFound, "unknown order id "+string(id))
	}
	if !o.IsWorking() {
		return nil, engineerr.New(engineerr.InvalidTransition, "order "+string(id)+" is not working")
	}
	qty := o.RemainingQuantity()
	matchID := types.NewMatchID()
	trade := e.makeTrade(matchID, o, qty, price, true, now)
	if err := o.Fill(qty, price, now); err != nil {
		return nil, err
	}
	if h, ok := e.handles[id]; ok {
		e.bookFor(o.Symbol).Remove(h)
		delete(e.handles, id)
	}
	return []types.Trade{trade}, nil
}

// GetOrder returns a snapshot copy of the order, if known.
func (e *Engine) GetOrder(id types.OrderID) (types.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, ok := e.orders[id]
	if !ok {
		return types.Order{}, false
	}
	return *o, true
}

// GetWorkingOrders returns snapshot copies of every order currently
// ACCEPTED or PARTIALLY_FILLED.
func (e *Engine) GetWorkingOrders() []types.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []types.Order
	for _, o := range e.orders {
		if o.IsWorking() {
			out = append(out, *o)
		}
	}
	return out
}

// GetOrdersBySymbol returns snapshot copies of every order for symbol.
func (e *Engine) GetOrdersBySymbol(symbol types.Symbol) []types.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []types.Order
	for _, o := range e.orders {
		if o.Symbol == symbol {
			out = append(out, *o)
		}
	}
	return out
}

// BestBidAsk returns the current top of book for symbol.
func (e *Engine) BestBidAsk(symbol types.Symbol) (bid, ask types.Price, hasBid, hasAsk bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[symbol]
	if !ok {
		return types.ZeroPrice, types.ZeroPrice, false, false
	}
	bid, hasBid = b.BestBid()
	ask, hasAsk = b.BestAsk()
	return bid, ask, hasBid, hasAsk
}

func opposite(side types.Side) types.Side {
	if side == types.SideBuy {
		return types.SideSell
	}
	return types.SideBuy
}

func minDecimal(a, b types.Quantity) types.Quantity {
	if a.LessThan(b) {
		return a
	}
	return b
}
