package matching

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/types"
)

func testEngine() *Engine {
	return New(zerolog.Nop(), types.NewIDGenerator("ORD", "TRD"))
}

func acceptedOrder(id types.OrderID, symbol types.Symbol, side types.Side, typ types.OrderType, qty, price string, now time.Time) *types.Order {
	o := types.NewOrder(id, symbol, side, typ, decimal.RequireFromString(qty), decimal.RequireFromString(price), now)
	if err := o.Accept(now); err != nil {
		panic(err)
	}
	return o
}

func TestSubmitRestsWhenNoCross(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()
	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "10", "100.00", now)

	trades := e.Submit(buy, now)
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	bid, _, hasBid, _ := e.BestBidAsk("AAPL")
	if !hasBid || !bid.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("best bid = %s, hasBid=%v, want 100.00/true", bid, hasBid)
	}
}

func TestSubmitCrossesAndProducesTwoTradeLegs(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()

	sell := acceptedOrder("S1", "AAPL", types.SideSell, types.OrderTypeLimit, "10", "100.00", now)
	e.Submit(sell, now)

	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "10", "100.00", now)
	trades := e.Submit(buy, now)

	if len(trades) != 2 {
		t.Fatalf("expected 2 trade legs for one cross, got %d", len(trades))
	}
	if trades[0].MatchID != trades[1].MatchID {
		t.Fatal("both legs of a cross should share a MatchID")
	}
	aggressorCount, restingCount := 0, 0
	for _, tr := range trades {
		if tr.IsAggressor {
			aggressorCount++
		} else {
			restingCount++
		}
	}
	if aggressorCount != 1 || restingCount != 1 {
		t.Fatalf("expected exactly one aggressor and one resting leg, got %d/%d", aggressorCount, restingCount)
	}

	got, ok := e.GetOrder("B1")
	if !ok || got.Status != types.OrderStatusFilled {
		t.Fatalf("buy order status = %v, want FILLED", got.Status)
	}
	got, ok = e.GetOrder("S1")
	if !ok || got.Status != types.OrderStatusFilled {
		t.Fatalf("sell order status = %v, want FILLED", got.Status)
	}
}

func TestSubmitExecutesAtRestingPricePriceImprovementForAggressor(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()

	sell := acceptedOrder("S1", "AAPL", types.SideSell, types.OrderTypeLimit, "10", "99.00", now)
	e.Submit(sell, now)

	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "10", "100.00", now)
	trades := e.Submit(buy, now)

	for _, tr := range trades {
		if !tr.Price.Equal(decimal.RequireFromString("99.00")) {
			t.Fatalf("execution price = %s, want the resting price of 99.00", tr.Price)
		}
	}
}

func TestSubmitRespectsPriceTimePriority(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()

	first := acceptedOrder("S1", "AAPL", types.SideSell, types.OrderTypeLimit, "5", "100.00", now)
	e.Submit(first, now)
	second := acceptedOrder("S2", "AAPL", types.SideSell, types.OrderTypeLimit, "5", "100.00", now)
	e.Submit(second, now)

	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "5", "100.00", now)
	trades := e.Submit(buy, now)

	var restingLeg *types.Trade
	for i := range trades {
		if !trades[i].IsAggressor {
			restingLeg = &trades[i]
		}
	}
	if restingLeg == nil || restingLeg.OrderID != "S1" {
		t.Fatalf("resting leg should be the earlier-arrived S1, got %v", restingLeg)
	}
}

func TestSubmitMarketOrderWithNoLiquidityIsCanceled(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()

	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeMarket, "10", "0", now)
	trades := e.Submit(buy, now)

	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	if buy.Status != types.OrderStatusCanceled {
		t.Fatalf("market order with no liquidity should be canceled, got %s", buy.Status)
	}
}

func TestCancelRemovesFromBookAndRejectsDoubleCancel(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()
	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "10", "100.00", now)
	e.Submit(buy, now)

	if err := e.Cancel("B1", now); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	_, _, hasBid, _ := e.BestBidAsk("AAPL")
	if hasBid {
		t.Fatal("book should have no resting bid after cancel")
	}

	err := e.Cancel("B1", now)
	if engineerr.KindOf(err) != engineerr.NotCancelable {
		t.Fatalf("second cancel should report NotCancelable, got %v", err)
	}
}

func TestCancelUnknownOrderReturnsNotFound(t *testing.T) {
	t.Parallel()
	e := testEngine()
	err := e.Cancel("GHOST", time.Now())
	if engineerr.KindOf(err) != engineerr.NotFound {
		t.Fatalf("Cancel of unknown id should report NotFound, got %v", err)
	}
}

func TestExecuteForceFillsWithoutCounterparty(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()
	buy := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "10", "100.00", now)
	e.Submit(buy, now)

	trades, err := e.Execute("B1", decimal.RequireFromString("101.00"), now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("Execute should produce exactly one trade, got %d", len(trades))
	}
	got, _ := e.GetOrder("B1")
	if got.Status != types.OrderStatusFilled {
		t.Fatalf("status = %s, want FILLED", got.Status)
	}
}

func TestGetWorkingOrdersExcludesTerminalOrders(t *testing.T) {
	t.Parallel()
	e := testEngine()
	now := time.Now()
	resting := acceptedOrder("B1", "AAPL", types.SideBuy, types.OrderTypeLimit, "10", "100.00", now)
	e.Submit(resting, now)

	filled := acceptedOrder("B2", "AAPL", types.SideBuy, types.OrderTypeLimit, "5", "100.00", now)
	e.Submit(filled, now)
	e.Execute("B2", decimal.RequireFromString("100.00"), now)

	working := e.GetWorkingOrders()
	if len(working) != 1 || working[0].ID != "B1" {
		t.Fatalf("working orders = %+v, want only B1", working)
	}
}
