package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// KwhPrecision is the number of fractional digits kept for quantities.
const KwhPrecision int32 = 4

// MaxKwh is the largest quantity a single order may carry.
var MaxKwh = decimal.NewFromInt(1_000_000)

var (
	ErrInvalidSide     = errors.New("invalid side")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
)

// ValidationError reports why an order was rejected before reaching a book.
type ValidationError struct {
	OrderID string
	Field   string
	Reason  string
	err     error
}

func (e *ValidationError) Error() string {
	if e.OrderID == "" {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("order %s: %s %s", e.OrderID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.err }

// RoundKwh rounds a quantity to KwhPrecision places, half to even.
func RoundKwh(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(KwhPrecision)
}

// Normalize rounds RemainingKwh to KwhPrecision places.
func (o *Order) Normalize() {
	o.RemainingKwh = RoundKwh(o.RemainingKwh)
}

// Validate checks the side and the quantity and price bounds. It does not
// look at other orders, so duplicate ids are the caller's concern.
func (o Order) Validate() error {
	if o.Side != Buy && o.Side != Sell {
		return &ValidationError{OrderID: o.ID, Field: "side", Reason: "must be Buy or Sell", err: ErrInvalidSide}
	}
	if !o.Kwh.IsPositive() {
		return &ValidationError{OrderID: o.ID, Field: "kwh", Reason: "must be > 0", err: ErrInvalidQuantity}
	}
	if o.Kwh.GreaterThan(MaxKwh) {
		return &ValidationError{OrderID: o.ID, Field: "kwh", Reason: "exceeds max allowed " + MaxKwh.String(), err: ErrInvalidQuantity}
	}
	if !o.Price.IsPositive() {
		return &ValidationError{OrderID: o.ID, Field: "price", Reason: "must be > 0", err: ErrInvalidPrice}
	}
	return nil
}

// Prepare defaults an unset RemainingKwh to Kwh, moves the timestamp to UTC,
// normalizes and validates.
func (o *Order) Prepare() error {
	if o.RemainingKwh.IsZero() {
		o.RemainingKwh = o.Kwh
	}
	o.Timestamp = o.Timestamp.UTC()
	o.Normalize()
	return o.Validate()
}

// Filled is the quantity already traded.
func (o Order) Filled() decimal.Decimal {
	return o.Kwh.Sub(o.RemainingKwh)
}
