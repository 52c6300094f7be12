package risk

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/types"
)

func testValidator() *Validator {
	return NewValidator(zerolog.Nop())
}

func validRequest(now time.Time) types.OrderRequest {
	return types.OrderRequest{
		Symbol:     "AAPL",
		Side:       types.SideBuy,
		Type:       types.OrderTypeLimit,
		Quantity:   decimal.NewFromInt(10),
		LimitPrice: decimal.NewFromInt(100),
		SubmitTime: now,
	}
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Positions:   map[types.Symbol]types.Position{},
		LatestPrice: map[types.Symbol]decimal.Decimal{},
	}
}

func TestValidateApprovesWellFormedRequestUnderLimits(t *testing.T) {
	t.Parallel()
	now := time.Now()
	d := testValidator().Validate(validRequest(now), emptySnapshot(), DefaultLimits(), now)
	if !d.Approved {
		t.Fatalf("expected approval, got rejection: %s", d.Reason)
	}
}

func TestValidateRejectsWhenTradingDisabled(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()
	limits.TradingEnabled = false
	d := testValidator().Validate(validRequest(now), emptySnapshot(), limits, now)
	if d.Approved {
		t.Fatal("expected rejection when trading is disabled")
	}
	if d.Reason != "Trading disabled" {
		t.Fatalf("reason = %q, want the trading-disabled check to fire on an otherwise well-formed request", d.Reason)
	}
}

func TestValidateShortCircuitsOnFirstFailure(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()
	limits.TradingEnabled = false

	// A request that also fails well-formedness; well-formedness runs
	// first (spec.md §4.2 check #1) and must win over the
	// trading-enabled kill switch (check #6), which runs last.
	req := validRequest(now)
	req.Quantity = decimal.Zero

	d := testValidator().Validate(req, emptySnapshot(), limits, now)
	if d.Approved {
		t.Fatal("expected rejection")
	}
	if d.Reason != "quantity must be positive" {
		t.Fatalf("reason = %q, want the well-formedness check (first in order) to win", d.Reason)
	}
}

func TestValidateRejectsMalformedRequests(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()

	cases := []struct {
		name string
		mod  func(r *types.OrderRequest)
	}{
		{"empty symbol", func(r *types.OrderRequest) { r.Symbol = "" }},
		{"zero quantity", func(r *types.OrderRequest) { r.Quantity = decimal.Zero }},
		{"negative quantity", func(r *types.OrderRequest) { r.Quantity = decimal.NewFromInt(-1) }},
		{"limit order with zero price", func(r *types.OrderRequest) { r.LimitPrice = decimal.Zero }},
		{"market order with nonzero price", func(r *types.OrderRequest) {
			r.Type = types.OrderTypeMarket
			r.LimitPrice = decimal.NewFromInt(1)
		}},
		{"stale submit time", func(r *types.OrderRequest) { r.SubmitTime = now.Add(-48 * time.Hour) }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest(now)
			c.mod(&req)
			d := testValidator().Validate(req, emptySnapshot(), limits, now)
			if d.Approved {
				t.Fatalf("expected rejection for %s", c.name)
			}
		})
	}
}

func TestValidateRejectsOrderSizeOverCap(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()
	req := validRequest(now)
	req.Quantity = decimal.NewFromInt(1_000_000)

	d := testValidator().Validate(req, emptySnapshot(), limits, now)
	if d.Approved {
		t.Fatal("expected rejection for order size over cap")
	}
}

func TestValidateRejectsProjectedPositionOverCap(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()
	limits.SetLimit(types.RiskLimit{Kind: types.LimitMaxPosition, Cap: decimal.NewFromInt(100), Active: true})
	limits.SetLimit(types.RiskLimit{Kind: types.LimitMaxOrderSize, Cap: decimal.NewFromInt(1_000_000), Active: true})

	snap := emptySnapshot()
	snap.Positions["AAPL"] = types.Position{Symbol: "AAPL", Quantity: decimal.NewFromInt(95)}

	req := validRequest(now)
	req.Quantity = decimal.NewFromInt(10)

	d := testValidator().Validate(req, snap, limits, now)
	if d.Approved {
		t.Fatal("expected rejection: 95 + 10 = 105 exceeds cap of 100")
	}
}

func TestValidatePerSymbolLimitOverridesGlobal(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()
	limits.PerSymbol["AAPL"] = map[types.LimitKind]types.RiskLimit{
		types.LimitMaxOrderSize: {Symbol: "AAPL", Kind: types.LimitMaxOrderSize, Cap: decimal.NewFromInt(5), Active: true},
	}

	req := validRequest(now)
	req.Quantity = decimal.NewFromInt(10) // within the global cap, over the per-symbol cap

	d := testValidator().Validate(req, emptySnapshot(), limits, now)
	if d.Approved {
		t.Fatal("expected per-symbol order size cap to override the global cap")
	}
}

func TestValidateRejectsProjectedDailyLossOverCap(t *testing.T) {
	t.Parallel()
	now := time.Now()
	limits := DefaultLimits()
	limits.SetLimit(types.RiskLimit{Kind: types.LimitMaxDailyLoss, Cap: decimal.NewFromInt(1000), Active: true})

	snap := emptySnapshot()
	snap.DailyRealizedPnL = decimal.NewFromInt(-990)

	req := validRequest(now)
	req.Quantity = decimal.NewFromInt(100)
	req.LimitPrice = decimal.NewFromInt(100) // notional 10000, estimated risk 500 at 5%

	d := testValidator().Validate(req, snap, limits, now)
	if d.Approved {
		t.Fatal("expected rejection: -990 - 500 breaches the -1000 cap")
	}
}

func TestEngineErrorForApprovedReturnsNil(t *testing.T) {
	t.Parallel()
	if err := EngineErrorFor(Decision{Approved: true}); err != nil {
		t.Fatalf("expected nil error for an approved decision, got %v", err)
	}
}

func TestEngineErrorForRejectedReturnsRiskRejection(t *testing.T) {
	t.Parallel()
	err := EngineErrorFor(Decision{Approved: false, Reason: "over cap"})
	if err == nil {
		t.Fatal("expected a non-nil error for a rejected decision")
	}
	if engineerr.KindOf(err) != engineerr.RiskRejection {
		t.Fatalf("error kind = %s, want RiskRejection", engineerr.KindOf(err))
	}
}
