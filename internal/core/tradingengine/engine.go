// Package tradingengine is the engine facade: it wires the event
// queue, risk validator, matching engine, position manager, and
// observer bus together behind Submit/Cancel/Modify and the read-only
// query surface, following internal/core/execution/engine.go's
// Start/Stop/processEvents shape from the teacher (collapsed from its
// two worker goroutines into the one spec.md mandates).
package tradingengine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/events"
	"github.com/pi5trading/tradecore/internal/core/matching"
	"github.com/pi5trading/tradecore/internal/core/position"
	"github.com/pi5trading/tradecore/internal/core/queue"
	"github.com/pi5trading/tradecore/internal/core/risk"
	"github.com/pi5trading/tradecore/internal/core/store"
	"github.com/pi5trading/tradecore/internal/core/types"
)

// Engine is the public entry point of the core. Submit/Cancel push
// onto the ring; everything downstream of the ring runs on a single
// worker goroutine, which is the sole mutator of the book, the order
// index, and the position ledger, per spec.md §5.
type Engine struct {
	logger zerolog.Logger
	cfg    Config

	ring      *queue.Ring
	ids       *types.IDGenerator
	validator *risk.Validator
	matcher   *matching.Engine
	positions *position.Manager
	bus       *events.Bus
	store     store.Store

	instrumentsMu sync.RWMutex
	instruments   map[types.Symbol]types.Instrument

	limitsMu sync.RWMutex
	limits   risk.Limits

	lastPriceMu sync.RWMutex
	lastPrice   map[types.Symbol]types.Price

	callbacksMu       sync.RWMutex
	onExecutionReport []func(types.ExecutionReport)
	onTrade           []func(types.Trade)
	onPositionUpdate  []func(types.Position)

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New constructs an Engine. The returned engine is not running until
// Start is called.
func New(cfg Config, logger zerolog.Logger, limits risk.Limits, st store.Store) *Engine {
	ids := types.NewIDGenerator(cfg.OrderIDPrefix, cfg.TradeIDPrefix)
	return &Engine{
		logger:      logger,
		cfg:         cfg,
		ring:        queue.NewRing(cfg.QueueCapacity),
		ids:         ids,
		validator:   risk.NewValidator(logger),
		matcher:     matching.New(logger, ids),
		positions:   position.New(),
		bus:         events.NewBus(256, logger),
		store:       st,
		instruments: map[types.Symbol]types.Instrument{},
		limits:      limits,
		lastPrice:   map[types.Symbol]types.Price{},
	}
}

// RegisterInstrument installs or replaces an instrument's tick/lot
// size, used for tick-grid rounding on acceptance.
func (e *Engine) RegisterInstrument(inst types.Instrument) {
	e.instrumentsMu.Lock()
	defer e.instrumentsMu.Unlock()
	e.instruments[inst.Symbol] = inst
}

// SetLimits replaces the risk limits the validator checks against.
func (e *Engine) SetLimits(limits risk.Limits) {
	e.limitsMu.Lock()
	defer e.limitsMu.Unlock()
	e.limits = limits
}

// Start launches the single worker goroutine that drains the event
// queue until a Shutdown event is processed.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info().Int("queue_capacity", e.ring.Capacity()).Msg("starting trading engine")
	e.wg.Add(1)
	go e.run(ctx)
}

// Stop enqueues Shutdown and waits for the worker to drain and exit,
// bounded by cfg.ShutdownDrainTimeout.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		_ = e.ring.PushTimeout(queue.Event{Shutdown: true}, e.cfg.ShutdownDrainTimeout)
	})
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(e.cfg.ShutdownDrainTimeout):
		e.logger.Warn().Msg("trading engine shutdown drain timed out")
	}
	e.bus.Close()
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("trading engine worker stopped by context")
			return
		default:
		}

		ev, ok := e.ring.Pop()
		if !ok {
			time.Sleep(time.Microsecond * 100)
			continue
		}
		if ev.Shutdown {
			e.logger.Info().Msg("trading engine worker draining remaining events before shutdown")
			return
		}
		e.dispatch(ctx, ev)
	}
}

func (e *Engine) dispatch(ctx context.Context, ev queue.Event) {
	now := time.Now()
	switch {
	case ev.NewOrder != nil:
		e.handleNewOrder(ctx, ev.NewOrder.Order, now)
	case ev.Cancel != nil:
		e.handleCancel(ctx, ev.Cancel.OrderID, now)
	case ev.Execute != nil:
		e.handleExecute(ctx, ev.Execute.OrderID, ev.Execute.Price, now)
	case ev.MarketTick != nil:
		e.handleMarketTick(ctx, ev.MarketTick.Tick, now)
	}
}

func (e *Engine) handleNewOrder(ctx context.Context, o *types.Order, now time.Time) {
	old := o.Status
	trades := e.matcher.Submit(o, now)
	for _, t := range trades {
		e.processTrade(ctx, t, now)
	}
	e.emitExecutionReport(ctx, old, o, now)
	_ = e.store.SaveOrder(*o)
}

func (e *Engine) handleCancel(ctx context.Context, id types.OrderID, now time.Time) {
	o, ok := e.matcher.GetOrder(id)
	if !ok {
		e.logger.Warn().Str("order_id", string(id)).Msg("cancel requested for unknown order")
		return
	}
	old := o.Status
	if err := e.matcher.Cancel(id, now); err != nil {
		e.logger.Warn().Err(err).Str("order_id", string(id)).Msg("cancel failed")
		return
	}
	updated, _ := e.matcher.GetOrder(id)
	e.emitExecutionReport(ctx, old, &updated, now)
	_ = e.store.SaveOrder(updated)
}

func (e *Engine) handleExecute(ctx context.Context, id types.OrderID, price types.Price, now time.Time) {
	o, ok := e.matcher.GetOrder(id)
	if !ok {
		return
	}
	old := o.Status
	trades, err := e.matcher.Execute(id, price, now)
	if err != nil {
		e.logger.Warn().Err(err).Str("order_id", string(id)).Msg("force execute failed")
		return
	}
	updated, _ := e.matcher.GetOrder(id)
	for _, t := range trades {
		e.processTrade(ctx, t, now)
	}
	e.emitExecutionReport(ctx, old, &updated, now)
	_ = e.store.SaveOrder(updated)
}

func (e *Engine) handleMarketTick(_ context.Context, tick types.Tick, now time.Time) {
	e.lastPriceMu.Lock()
	e.lastPrice[tick.Symbol] = tick.Last
	e.lastPriceMu.Unlock()

	pos := e.positions.Mark(tick.Symbol, tick.Last, now)
	e.publishPosition(*pos)
}

// processTrade records one trade leg and, if it is the aggressor leg,
// applies it to the symbol's net position. A cross produces one
// aggressor leg and one resting leg for the same fill; applying both
// to a single per-symbol position would net every cross to zero, so
// only the aggressor's leg moves the ledger (spec.md §8 scenario 1).
// It runs inline on the worker goroutine, synchronously before the
// fill's ExecutionReport, so observers see the Trade first.
func (e *Engine) processTrade(_ context.Context, trade types.Trade, now time.Time) {
	_ = e.store.SaveTrade(trade)
	if trade.IsAggressor {
		pos := e.positions.ApplyTrade(trade, now)
		_ = e.store.UpsertPosition(*pos)
		e.publishPosition(*pos)
	}
	e.publishTrade(trade)
}

func (e *Engine) emitExecutionReport(ctx context.Context, old types.OrderStatus, o *types.Order, now time.Time) {
	report := types.ExecutionReport{
		OrderID:         o.ID,
		Symbol:          o.Symbol,
		OldStatus:       old,
		NewStatus:       o.Status,
		FilledQuantity:  o.FilledQuantity,
		RemainingQty:    o.RemainingQuantity(),
		ExecPrice:       o.AverageFillPrice(),
		Timestamp:       now,
		RejectionReason: o.RejectionReason,
	}
	e.callbacksMu.RLock()
	cbs := append([]func(types.ExecutionReport){}, e.onExecutionReport...)
	e.callbacksMu.RUnlock()
	for _, cb := range cbs {
		safeInvoke(e.logger, func() { cb(report) })
	}
	e.bus.Publish(ctx, events.NewExecutionReportEvent(report))
}

func (e *Engine) publishTrade(trade types.Trade) {
	e.callbacksMu.RLock()
	cbs := append([]func(types.Trade){}, e.onTrade...)
	e.callbacksMu.RUnlock()
	for _, cb := range cbs {
		safeInvoke(e.logger, func() { cb(trade) })
	}
	e.bus.Publish(context.Background(), events.NewTradeEvent(trade))
}

func (e *Engine) publishPosition(pos types.Position) {
	e.callbacksMu.RLock()
	cbs := append([]func(types.Position){}, e.onPositionUpdate...)
	e.callbacksMu.RUnlock()
	for _, cb := range cbs {
		safeInvoke(e.logger, func() { cb(pos) })
	}
	e.bus.Publish(context.Background(), events.NewPositionEvent(pos))
}

// safeInvoke calls fn, recovering and logging a panic rather than
// letting a misbehaving observer callback crash the worker, per
// spec.md §4.6 "unexpected handler exceptions in observers: caught
// and logged; state is unaffected."
func safeInvoke(logger zerolog.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("observer callback panicked")
		}
	}()
	fn()
}

// OnExecutionReport registers cb to be invoked synchronously on the
// worker goroutine for every ExecutionReport.
func (e *Engine) OnExecutionReport(cb func(types.ExecutionReport)) {
	e.callbacksMu.Lock()
	defer e.callbacksMu.Unlock()
	e.onExecutionReport = append(e.onExecutionReport, cb)
}

// OnTrade registers cb to be invoked synchronously on the worker
// goroutine for every Trade.
func (e *Engine) OnTrade(cb func(types.Trade)) {
	e.callbacksMu.Lock()
	defer e.callbacksMu.Unlock()
	e.onTrade = append(e.onTrade, cb)
}

// OnPositionUpdate registers cb to be invoked synchronously on the
// worker goroutine for every Position update.
func (e *Engine) OnPositionUpdate(cb func(types.Position)) {
	e.callbacksMu.Lock()
	defer e.callbacksMu.Unlock()
	e.onPositionUpdate = append(e.onPositionUpdate, cb)
}

// Subscribe exposes the underlying observer bus for consumers that
// prefer a channel (persistence bridges, a UI feed) over a direct
// callback.
func (e *Engine) Subscribe(eventType events.EventType) <-chan events.Event {
	return e.bus.Subscribe(eventType)
}
