package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType selects the matching behavior of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus is a node in the order lifecycle state machine.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusAccepted        OrderStatus = "ACCEPTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// transitions enumerates every legal edge in the order lifecycle.
// Ported from the original matching engine's is_status_transition_valid.
var transitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusNew: {
		OrderStatusAccepted: true,
		OrderStatusRejected: true,
	},
	OrderStatusAccepted: {
		OrderStatusPartiallyFilled: true,
		OrderStatusFilled:          true,
		OrderStatusCanceled:        true,
		OrderStatusRejected:        true,
	},
	OrderStatusPartiallyFilled: {
		OrderStatusFilled:   true,
		OrderStatusCanceled: true,
	},
	OrderStatusFilled:   {},
	OrderStatusCanceled: {},
	OrderStatusRejected: {},
}

// IsTerminal reports whether status has no outbound transitions.
func (s OrderStatus) IsTerminal() bool {
	edges, ok := transitions[s]
	return ok && len(edges) == 0
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	edges, ok := transitions[s]
	if !ok {
		return false
	}
	return edges[next]
}

// Order is the mutable record of a single order through its lifecycle.
// CreatedAt, Symbol, Side, Type, Quantity and LimitPrice are set once at
// construction and never change; everything else mutates under the
// owning engine's lock.
type Order struct {
	ID         OrderID
	Symbol     Symbol
	Side       Side
	Type       OrderType
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal // zero for market orders
	CreatedAt  time.Time

	Status          OrderStatus
	FilledQuantity  decimal.Decimal
	FilledNotional  decimal.Decimal // sum(fill_qty * fill_price), for avg fill price
	LastModified    time.Time
	RejectionReason string
}

// NewOrder constructs a NEW order. It does not validate against an
// instrument; callers run validation before accepting.
func NewOrder(id OrderID, symbol Symbol, side Side, typ OrderType, qty, limitPrice decimal.Decimal, now time.Time) *Order {
	return &Order{
		ID:             id,
		Symbol:         symbol,
		Side:           side,
		Type:           typ,
		Quantity:       qty,
		LimitPrice:     limitPrice,
		CreatedAt:      now,
		Status:         OrderStatusNew,
		FilledQuantity: decimal.Zero,
		FilledNotional: decimal.Zero,
		LastModified:   now,
	}
}

// RemainingQuantity is Quantity minus FilledQuantity.
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// AverageFillPrice is FilledNotional / FilledQuantity, or zero if
// nothing has filled yet.
func (o *Order) AverageFillPrice() decimal.Decimal {
	if o.FilledQuantity.IsZero() {
		return decimal.Zero
	}
	return o.FilledNotional.Div(o.FilledQuantity)
}

// IsWorking reports whether the order can still receive fills.
func (o *Order) IsWorking() bool {
	return o.Status == OrderStatusAccepted || o.Status == OrderStatusPartiallyFilled
}

// IsCancelable reports whether Cancel would currently succeed.
func (o *Order) IsCancelable() bool {
	return o.IsWorking()
}

// transition moves the order to next, or returns an InvalidTransition
// error if the edge is not legal for the current status.
func (o *Order) transition(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransition(next) {
		return engineerr.New(engineerr.InvalidTransition, "cannot move order from "+string(o.Status)+" to "+string(next))
	}
	o.Status = next
	o.LastModified = now
	return nil
}

// Accept moves the order from NEW to ACCEPTED.
func (o *Order) Accept(now time.Time) error {
	return o.transition(OrderStatusAccepted, now)
}

// Reject moves the order to REJECTED and records reason.
func (o *Order) Reject(reason string, now time.Time) error {
	if err := o.transition(OrderStatusRejected, now); err != nil {
		return err
	}
	o.RejectionReason = reason
	return nil
}

// Cancel moves a working order to CANCELED.
func (o *Order) Cancel(now time.Time) error {
	if !o.IsCancelable() {
		return engineerr.New(engineerr.NotCancelable, "order "+string(o.ID)+" is not in a cancelable state")
	}
	return o.transition(OrderStatusCanceled, now)
}

// Fill applies a fill of qty at price, moving the order to
// PARTIALLY_FILLED or FILLED depending on the resulting remaining
// quantity. It rejects a fill that would exceed the order's remaining
// quantity.
func (o *Order) Fill(qty, price decimal.Decimal, now time.Time) error {
	if !o.IsWorking() {
		return engineerr.New(engineerr.InvalidTransition, "order "+string(o.ID)+" is not working")
	}
	if qty.Sign() <= 0 || price.Sign() <= 0 {
		return engineerr.New(engineerr.Validation, "fill quantity and price must be positive")
	}
	remaining := o.RemainingQuantity()
	if qty.GreaterThan(remaining) {
		return engineerr.New(engineerr.OverFill, "fill quantity exceeds remaining quantity on order "+string(o.ID))
	}

	o.FilledQuantity = o.FilledQuantity.Add(qty)
	o.FilledNotional = o.FilledNotional.Add(qty.Mul(price))

	next := OrderStatusPartiallyFilled
	if o.FilledQuantity.GreaterThanOrEqual(o.Quantity) {
		next = OrderStatusFilled
	}
	return o.transition(next, now)
}
