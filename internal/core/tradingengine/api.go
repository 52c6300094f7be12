package tradingengine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/queue"
	"github.com/pi5trading/tradecore/internal/core/risk"
	"github.com/pi5trading/tradecore/internal/core/types"
)

// Submit validates req, generates an order id, and enqueues it for
// matching. A request that fails validation never reaches the queue:
// it produces a REJECTED order record and an ExecutionReport, per
// spec.md §4.6, and the error returned carries RiskRejection as its
// Kind for every failed check, well-formedness failures included.
func (e *Engine) Submit(ctx context.Context, req types.OrderRequest) (types.OrderID, error) {
	return e.submit(ctx, req, e.ring.Push)
}

// SubmitFor is Submit with a bounded wait on queue backpressure,
// returning Timeout if the ring does not free a slot within d.
func (e *Engine) SubmitFor(ctx context.Context, req types.OrderRequest, d time.Duration) (types.OrderID, error) {
	return e.submit(ctx, req, func(ev queue.Event) error {
		return e.ring.PushTimeout(ev, d)
	})
}

func (e *Engine) submit(ctx context.Context, req types.OrderRequest, push func(queue.Event) error) (types.OrderID, error) {
	now := time.Now()
	id := e.ids.NextOrderID(now)

	inst, hasInstrument := e.instrumentFor(req.Symbol)
	if hasInstrument && req.Type == types.OrderTypeLimit {
		req.LimitPrice = types.RoundToTick(req.LimitPrice, inst.TickSize)
	}

	decision := e.validateRequest(req, now)
	if !decision.Approved {
		order := types.NewOrder(id, req.Symbol, req.Side, req.Type, req.Quantity, req.LimitPrice, now)
		_ = order.Reject(decision.Reason, now)
		e.emitExecutionReport(ctx, types.OrderStatusNew, order, now)
		_ = e.store.SaveOrder(*order)
		return id, risk.EngineErrorFor(decision)
	}

	order := types.NewOrder(id, req.Symbol, req.Side, req.Type, req.Quantity, req.LimitPrice, now)
	if err := order.Accept(now); err != nil {
		return id, err
	}

	if err := push(queue.Event{NewOrder: &queue.NewOrderEvent{Order: order}}); err != nil {
		return id, engineerr.New(engineerr.Busy, "event queue rejected submission")
	}
	return id, nil
}

func (e *Engine) validateRequest(req types.OrderRequest, now time.Time) risk.Decision {
	e.limitsMu.RLock()
	limits := e.limits
	e.limitsMu.RUnlock()

	snap := e.riskSnapshot()
	return e.validator.Validate(req, snap, limits, now)
}

func (e *Engine) riskSnapshot() risk.Snapshot {
	e.lastPriceMu.RLock()
	lastPrice := make(map[types.Symbol]decimal.Decimal, len(e.lastPrice))
	for k, v := range e.lastPrice {
		lastPrice[k] = v
	}
	e.lastPriceMu.RUnlock()

	positions := map[types.Symbol]types.Position{}
	for _, p := range e.positions.All() {
		positions[p.Symbol] = p
	}

	return risk.Snapshot{
		Positions:          positions,
		LatestPrice:        lastPrice,
		DailyRealizedPnL:   e.positions.DailyRealizedPnL(),
		DailyUnrealizedPnL: e.positions.DailyUnrealizedPnL(),
	}
}

func (e *Engine) instrumentFor(symbol types.Symbol) (types.Instrument, bool) {
	e.instrumentsMu.RLock()
	defer e.instrumentsMu.RUnlock()
	inst, ok := e.instruments[symbol]
	return inst, ok
}

// Cancel enqueues cancellation of id. Completion is asynchronous; the
// resulting ExecutionReport (or the absence of one, if id is unknown
// or already terminal) arrives via the observer callbacks.
func (e *Engine) Cancel(id types.OrderID) error {
	return e.ring.Push(queue.Event{Cancel: &queue.CancelEvent{OrderID: id}})
}

// Modify is not supported for immutable orders; callers cancel and
// resubmit instead, per spec.md §4.4.
func (e *Engine) Modify(_ types.OrderID, _ types.Quantity, _ types.Price) error {
	return engineerr.New(engineerr.ModifyUnsupported, "modify is not supported; cancel and resubmit")
}

// Execute force-executes id at price, bypassing the book. Reserved
// for test harnesses that need deterministic fills without a resting
// counterparty.
func (e *Engine) Execute(id types.OrderID, price types.Price) error {
	return e.ring.Push(queue.Event{Execute: &queue.ExecuteEvent{OrderID: id, Price: price}})
}

// PushTick delivers a market-data tick into the worker.
func (e *Engine) PushTick(tick types.Tick) error {
	return e.ring.Push(queue.Event{MarketTick: &queue.MarketTickEvent{Tick: tick}})
}

// GetOrder returns a snapshot copy of the order, or NotFound.
func (e *Engine) GetOrder(id types.OrderID) (types.Order, error) {
	o, ok := e.matcher.GetOrder(id)
	if !ok {
		return types.Order{}, engineerr.New(engineerr.NotFound, "unknown order id "+string(id))
	}
	return o, nil
}

// GetWorkingOrders returns every order currently ACCEPTED or
// PARTIALLY_FILLED.
func (e *Engine) GetWorkingOrders() []types.Order {
	return e.matcher.GetWorkingOrders()
}

// GetOrdersBySymbol returns every order for symbol.
func (e *Engine) GetOrdersBySymbol(symbol types.Symbol) []types.Order {
	return e.matcher.GetOrdersBySymbol(symbol)
}

// GetPosition returns a snapshot copy of the position for symbol.
func (e *Engine) GetPosition(symbol types.Symbol) (types.Position, bool) {
	return e.positions.Get(symbol)
}

// GetAllPositions returns a snapshot copy of every position.
func (e *Engine) GetAllPositions() []types.Position {
	return e.positions.All()
}

// RollDay resets the daily realized P&L accumulator. It is an
// explicit operator-triggered operation, not a timer.
func (e *Engine) RollDay() {
	e.positions.RollDay()
}
