// Package money holds monetary amounts as integer minor units so that
// discount and rounding arithmetic never drifts the way binary floating
// point storage would.
package money

import (
	"errors"
	"math"
)

// Amount is a monetary value in minor units (e.g. cents, sen).
type Amount int64

// Sentinel errors for pricing inputs.
var (
	ErrInvalidQuantity = errors.New("money: quantity must be a positive integer")
	ErrNegativePrice   = errors.New("money: unit price must be >= 0")
	ErrDiscountRange   = errors.New("money: discount percent must be within [0,100]")
)

// PriceLine computes qty*unitPrice*(1-discountPct/100), rounding to a whole
// minor unit exactly once at this boundary. Intermediate steps are not
// rounded, so a 10% discount on 3 x 25000 yields 67500 exactly.
func PriceLine(qty int64, unitPrice Amount, discountPct float64) (Amount, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return 0, ErrNegativePrice
	}
	if discountPct < 0 || discountPct > 100 {
		return 0, ErrDiscountRange
	}
	raw := float64(qty) * float64(unitPrice) * (1 - discountPct/100)
	return Round(raw), nil
}

// Multiply prices a line without a discount, e.g. sale items.
func Multiply(qty int64, unitPrice Amount) (Amount, error) {
	return PriceLine(qty, unitPrice, 0)
}

// Round converts a raw float computation to minor units, half away from zero.
func Round(raw float64) Amount {
	if raw < 0 {
		return Amount(math.Ceil(raw - 0.5))
	}
	return Amount(math.Floor(raw + 0.5))
}

// Sum adds amounts. Kept explicit so call sites read as money arithmetic.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
