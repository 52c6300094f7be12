package risk

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/types"
)

// Decision is the outcome of Validate: either Approved or rejected
// with Reason naming the first check that failed, per spec.md §4.2.
type Decision struct {
	Approved bool
	Reason   string
}

// Validator runs the ordered, side-effect-free pre-trade checks over
// a request, a ledger snapshot, and a set of limits.
type Validator struct {
	logger zerolog.Logger
}

func NewValidator(logger zerolog.Logger) *Validator {
	return &Validator{logger: logger}
}

type checkFunc func(req types.OrderRequest, snap Snapshot, limits Limits, now time.Time) (ok bool, reason string)

// checks runs in this fixed order; the first failure wins, per
// spec.md §4.2, which numbers well-formedness first and the
// trading-enabled kill switch last.
var checks = []checkFunc{
	checkWellFormed,
	checkOrderSize,
	checkPositionCap,
	checkPortfolioNotional,
	checkDailyLoss,
	checkTradingEnabled,
}

// Validate returns Accept or Reject{reason} for req against snap and
// limits. It never mutates its arguments.
func (v *Validator) Validate(req types.OrderRequest, snap Snapshot, limits Limits, now time.Time) Decision {
	for _, check := range checks {
		if ok, reason := check(req, snap, limits, now); !ok {
			v.logger.Warn().Str("symbol", string(req.Symbol)).Str("reason", reason).Msg("risk check rejected order")
			return Decision{Approved: false, Reason: reason}
		}
	}
	return Decision{Approved: true}
}

func checkTradingEnabled(_ types.OrderRequest, _ Snapshot, limits Limits, _ time.Time) (bool, string) {
	if !limits.TradingEnabled {
		return false, "Trading disabled"
	}
	return true, ""
}

func checkWellFormed(req types.OrderRequest, _ Snapshot, _ Limits, now time.Time) (bool, string) {
	if req.Symbol == "" {
		return false, "symbol must not be empty"
	}
	if req.Quantity.Sign() <= 0 {
		return false, "quantity must be positive"
	}
	switch req.Type {
	case types.OrderTypeLimit:
		if req.LimitPrice.Sign() <= 0 {
			return false, "limit orders require a positive price"
		}
	case types.OrderTypeMarket:
		if !req.LimitPrice.IsZero() {
			return false, "market orders must have zero price"
		}
	default:
		return false, "unknown order type"
	}
	earliest := now.Add(-24 * time.Hour)
	latest := now.Add(time.Minute)
	if req.SubmitTime.Before(earliest) || req.SubmitTime.After(latest) {
		return false, "submission timestamp out of bounds"
	}
	return true, ""
}

func checkOrderSize(req types.OrderRequest, _ Snapshot, limits Limits, _ time.Time) (bool, string) {
	cap, ok := limits.EffectiveOrderSizeCap(req.Symbol)
	if !ok {
		return true, ""
	}
	if req.Quantity.GreaterThan(cap) {
		return false, "Order size " + req.Quantity.String() + " exceeds cap " + cap.String()
	}
	return true, ""
}

func checkPositionCap(req types.OrderRequest, snap Snapshot, limits Limits, _ time.Time) (bool, string) {
	cap, ok := limits.EffectivePositionCap(req.Symbol)
	if !ok {
		return true, ""
	}
	signedQty := req.Quantity
	if req.Side == types.SideSell {
		signedQty = signedQty.Neg()
	}
	projected := snap.PositionQuantity(req.Symbol).Add(signedQty).Abs()
	if projected.GreaterThan(cap) {
		return false, "projected position " + projected.String() + " exceeds cap " + cap.String()
	}
	return true, ""
}

func checkPortfolioNotional(req types.OrderRequest, snap Snapshot, limits Limits, _ time.Time) (bool, string) {
	if limits.PortfolioNotionalCap.Sign() <= 0 {
		return true, ""
	}
	referencePrice := req.LimitPrice
	if req.Type == types.OrderTypeMarket {
		if last, ok := snap.LatestPrice[req.Symbol]; ok {
			referencePrice = last
		}
	}
	projected := snap.PortfolioNotional().Add(req.Quantity.Mul(referencePrice))
	if projected.GreaterThan(limits.PortfolioNotionalCap) {
		return false, "projected portfolio notional " + projected.String() + " exceeds cap " + limits.PortfolioNotionalCap.String()
	}
	return true, ""
}

func checkDailyLoss(req types.OrderRequest, snap Snapshot, limits Limits, _ time.Time) (bool, string) {
	cap, ok := limits.DailyLossCap()
	if !ok {
		return true, ""
	}
	referencePrice := req.LimitPrice
	if req.Type == types.OrderTypeMarket {
		if last, ok := snap.LatestPrice[req.Symbol]; ok {
			referencePrice = last
		}
	}
	notional := req.Quantity.Mul(referencePrice)
	estimatedRisk := notional.Mul(limits.OrderLossEstimateFraction)
	projectedPnL := snap.DailyRealizedPnL.Add(snap.DailyUnrealizedPnL).Sub(estimatedRisk)
	if projectedPnL.LessThan(cap.Neg()) {
		return false, "projected daily loss would exceed cap " + cap.String()
	}
	return true, ""
}

// EngineErrorFor converts a rejected Decision into a RiskRejection error.
func EngineErrorFor(d Decision) error {
	if d.Approved {
		return nil
	}
	return engineerr.New(engineerr.RiskRejection, d.Reason)
}
