// Package risk implements the pre-trade risk validator and the ledger
// snapshot it checks against. Grounded on the teacher's
// internal/core/risk/manager.go for the function-table shape, but the
// short-circuit-on-first-failure behavior follows the original matching
// engine's risk_manager.cpp and the check order follows spec.md §4.2,
// not the teacher's accumulate-all RiskCheckResult.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/types"
)

// Limits holds global and per-symbol risk caps. At most one active
// limit exists per (symbol, kind) pair; per-symbol entries override
// the matching global entry when active.
type Limits struct {
	Global    map[types.LimitKind]types.RiskLimit
	PerSymbol map[types.Symbol]map[types.LimitKind]types.RiskLimit

	PortfolioNotionalCap      decimal.Decimal
	OrderLossEstimateFraction decimal.Decimal
	TradingEnabled            bool
}

// DefaultLimits mirrors the teacher's GetDefaultLimits() factory: a
// conservative starting point an operator is expected to override via
// configuration.
func DefaultLimits() Limits {
	return Limits{
		Global: map[types.LimitKind]types.RiskLimit{
			types.LimitMaxOrderSize: {Kind: types.LimitMaxOrderSize, Cap: decimal.NewFromInt(10_000), Active: true},
			types.LimitMaxPosition:  {Kind: types.LimitMaxPosition, Cap: decimal.NewFromInt(100_000), Active: true},
			types.LimitMaxDailyLoss: {Kind: types.LimitMaxDailyLoss, Cap: decimal.NewFromInt(50_000), Active: true},
		},
		PerSymbol:                 map[types.Symbol]map[types.LimitKind]types.RiskLimit{},
		PortfolioNotionalCap:      decimal.NewFromInt(1_000_000),
		OrderLossEstimateFraction: decimal.NewFromFloat(0.05),
		TradingEnabled:            true,
	}
}

// EffectiveOrderSizeCap returns the symbol-specific cap if active,
// else the global cap, else a zero decimal with ok=false meaning no
// cap is configured (the check is skipped).
func (l Limits) EffectiveOrderSizeCap(symbol types.Symbol) (decimal.Decimal, bool) {
	return l.effective(symbol, types.LimitMaxOrderSize)
}

// EffectivePositionCap mirrors EffectiveOrderSizeCap for position size.
func (l Limits) EffectivePositionCap(symbol types.Symbol) (decimal.Decimal, bool) {
	return l.effective(symbol, types.LimitMaxPosition)
}

func (l Limits) effective(symbol types.Symbol, kind types.LimitKind) (decimal.Decimal, bool) {
	if perSym, ok := l.PerSymbol[symbol]; ok {
		if limit, ok := perSym[kind]; ok && limit.Active {
			return limit.Cap, true
		}
	}
	if limit, ok := l.Global[kind]; ok && limit.Active {
		return limit.Cap, true
	}
	return decimal.Zero, false
}

// DailyLossCap returns the configured daily loss cap, if any is active.
func (l Limits) DailyLossCap() (decimal.Decimal, bool) {
	if limit, ok := l.Global[types.LimitMaxDailyLoss]; ok && limit.Active {
		return limit.Cap, true
	}
	return decimal.Zero, false
}

// SetLimit installs or replaces a risk limit, storing it globally when
// Symbol is empty and per-symbol otherwise.
func (l *Limits) SetLimit(limit types.RiskLimit) {
	if limit.Symbol == "" {
		l.Global[limit.Kind] = limit
		return
	}
	if l.PerSymbol[limit.Symbol] == nil {
		l.PerSymbol[limit.Symbol] = map[types.LimitKind]types.RiskLimit{}
	}
	l.PerSymbol[limit.Symbol][limit.Kind] = limit
}
