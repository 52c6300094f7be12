package position

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/types"
)

func trade(symbol types.Symbol, side types.Side, qty, price string) types.Trade {
	return types.Trade{
		Symbol:   symbol,
		Side:     side,
		Quantity: decimal.RequireFromString(qty),
		Price:    decimal.RequireFromString(price),
	}
}

func TestApplyTradeOpensLongPosition(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	pos := m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "10.00"), now)

	if !pos.Quantity.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("quantity = %s, want 100", pos.Quantity)
	}
	if !pos.AverageCost.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("average cost = %s, want 10", pos.AverageCost)
	}
}

func TestApplyTradeBlendsAverageCostOnAdd(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "10.00"), now)
	pos := m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "12.00"), now)

	if !pos.Quantity.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("quantity = %s, want 200", pos.Quantity)
	}
	if !pos.AverageCost.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("average cost = %s, want 11 (VWAP of 100@10 and 100@12)", pos.AverageCost)
	}
}

func TestApplyTradeRealizesPnLOnPartialReduce(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "10.00"), now)
	pos := m.ApplyTrade(trade("AAPL", types.SideSell, "40", "15.00"), now)

	if !pos.Quantity.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("quantity = %s, want 60", pos.Quantity)
	}
	if !pos.RealizedPnL.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("realized pnl = %s, want 200 (40 * (15-10))", pos.RealizedPnL)
	}
	if !pos.AverageCost.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("average cost should not change on a partial reduce, got %s", pos.AverageCost)
	}
	if !m.DailyRealizedPnL().Equal(decimal.NewFromInt(200)) {
		t.Fatalf("daily realized pnl = %s, want 200", m.DailyRealizedPnL())
	}
}

func TestApplyTradeFlipSignResetsAverageCost(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "10.00"), now)
	pos := m.ApplyTrade(trade("AAPL", types.SideSell, "150", "12.00"), now)

	if !pos.Quantity.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("quantity = %s, want -50", pos.Quantity)
	}
	if !pos.AverageCost.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("average cost after flip should reset to the flipping trade's price, got %s", pos.AverageCost)
	}
	if !pos.RealizedPnL.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("realized pnl on the closing 100 shares = %s, want 200", pos.RealizedPnL)
	}
}

func TestApplyTradeClosingToFlatZeroesAverageCost(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "10.00"), now)
	pos := m.ApplyTrade(trade("AAPL", types.SideSell, "100", "11.00"), now)

	if !pos.IsFlat() {
		t.Fatal("position should be flat")
	}
	if !pos.AverageCost.IsZero() {
		t.Fatalf("average cost should be zero once flat, got %s", pos.AverageCost)
	}
}

func TestMarkComputesUnrealizedPnLOnlyWhenPositioned(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()

	pos := m.Mark("AAPL", decimal.NewFromInt(50), now)
	if !pos.UnrealizedPnL.IsZero() {
		t.Fatalf("unrealized pnl on a flat position should be zero, got %s", pos.UnrealizedPnL)
	}

	m.ApplyTrade(trade("AAPL", types.SideBuy, "10", "40.00"), now)
	pos = m.Mark("AAPL", decimal.NewFromInt(50), now)
	if !pos.UnrealizedPnL.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unrealized pnl = %s, want 100 (10 * (50-40))", pos.UnrealizedPnL)
	}
}

func TestRollDayResetsDailyRealizedButKeepsPositions(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	m.ApplyTrade(trade("AAPL", types.SideBuy, "100", "10.00"), now)
	m.ApplyTrade(trade("AAPL", types.SideSell, "40", "15.00"), now)

	m.RollDay()

	if !m.DailyRealizedPnL().IsZero() {
		t.Fatalf("daily realized pnl after RollDay = %s, want 0", m.DailyRealizedPnL())
	}
	pos, ok := m.Get("AAPL")
	if !ok {
		t.Fatal("position should survive RollDay")
	}
	if !pos.Quantity.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("quantity should survive RollDay unchanged, got %s", pos.Quantity)
	}
}

func TestAllReturnsSnapshotOfEveryPosition(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Now()
	m.ApplyTrade(trade("AAPL", types.SideBuy, "10", "10.00"), now)
	m.ApplyTrade(trade("MSFT", types.SideBuy, "5", "50.00"), now)

	all := m.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(all))
	}
}
