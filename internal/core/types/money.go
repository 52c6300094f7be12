package types

import "github.com/shopspring/decimal"

// Price is an exact decimal price. Zero is a valid price only for
// market orders, where it means "no limit".
type Price = decimal.Decimal

// Quantity is an exact decimal order/fill size.
type Quantity = decimal.Decimal

// ZeroPrice and ZeroQuantity are convenience zero values, matching the
// decimal package's own zero value so they compose with decimal.Decimal
// literals built elsewhere in the codebase.
var (
	ZeroPrice    = decimal.Zero
	ZeroQuantity = decimal.Zero
)

// RoundToTick rounds price to the nearest multiple of tick using
// half-even (banker's) rounding of price/tick; the quotient itself is
// computed with decimal's DivisionPrecision.
func RoundToTick(price, tick decimal.Decimal) decimal.Decimal {
	if tick.IsZero() {
		return price
	}
	quotient := price.Div(tick)
	rounded := quotient.RoundBank(0)
	return rounded.Mul(tick)
}

// IsMultipleOf reports whether value is an exact multiple of step.
func IsMultipleOf(value, step decimal.Decimal) bool {
	if step.IsZero() {
		return true
	}
	remainder := value.Mod(step)
	return remainder.IsZero()
}
