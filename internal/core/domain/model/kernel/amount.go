package kernel

import (
	"fmt"

	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits an Amount may carry.
const AmountScale = 2

// ErrAmountIsNotConstructed is returned when an Amount was not built by NewAmount or
// NewAmountFromString.
var ErrAmountIsNotConstructed = errs.NewValueIsRequiredError(
	"amount must be created via NewAmount or NewAmountFromString constructors")

// Amount is the monetary value of an order. It is an immutable value object
// backed by an arbitrary-precision decimal, so 19.99 stays 19.99 on its way
// through JSON, the store and the queue.
//
// Example:
//
//	amount, err := kernel.NewAmountFromString("19.99")
//	if err != nil {
//	    // negative, malformed or too precise
//	}
type Amount struct { //nolint:recvcheck //using for validation
	value decimal.Decimal
	guard guard.ConstructorGuard
}

// NewAmount validates d and wraps it into an Amount.
//
// Rules:
//   - d must not be negative
//   - d must have at most AmountScale fractional digits
func NewAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, errs.NewValueIsInvalidErrorWithCause(
			"amount", fmt.Errorf("%s is less than 0", d.String()))
	}
	if !d.Equal(d.Round(AmountScale)) {
		return Amount{}, errs.NewValueIsInvalidErrorWithCause(
			"amount", fmt.Errorf("%s has more than %d fractional digits", d.String(), AmountScale))
	}

	return Amount{value: d, guard: guard.NewConstructorGuard()}, nil
}

// NewAmountFromString parses s as a decimal and validates it like NewAmount.
func NewAmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, errs.NewValueIsInvalidErrorWithCause("amount", err)
	}
	return NewAmount(d)
}

// Validate reports whether the amount was created through a constructor.
func (a Amount) Validate() error {
	return a.guard.Validate(ErrAmountIsNotConstructed)
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// IsEqual compares two amounts numerically, so 2.5 equals 2.50.
func (a Amount) IsEqual(other Amount) bool {
	return a.value.Equal(other.value)
}

// String renders the amount with exactly AmountScale fractional digits.
func (a Amount) String() string {
	return a.value.StringFixed(AmountScale)
}
