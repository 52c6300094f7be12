package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest is the caller-supplied intent to submit an order. It is
// consumed on validation and not retained beyond producing the
// resulting Order (accepted) or rejection report.
type OrderRequest struct {
	Symbol     Symbol
	Side       Side
	Type       OrderType
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal // must be 0 for MARKET, > 0 for LIMIT
	SubmitTime time.Time
}

// ExecutionReport is the observer-facing record of a status or fill
// change on an order.
type ExecutionReport struct {
	OrderID         OrderID
	Symbol          Symbol
	OldStatus       OrderStatus
	NewStatus       OrderStatus
	FilledQuantity  decimal.Decimal
	RemainingQty    decimal.Decimal
	ExecPrice       decimal.Decimal // zero if this report has no associated fill
	Timestamp       time.Time
	RejectionReason string
}
