// Package types provides the numeric types shared by billing code.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a decimal quantity; labour is billed in fractional hours.
type Quantity = decimal.Decimal

// TaxRate is a percentage between 0 and 100 (5.5 means 5.5%).
type TaxRate = decimal.Decimal

// DisplayPlaces is the number of fractional digits shown for monetary amounts.
const DisplayPlaces int32 = 2

// Input scales, matching the line columns. Anything finer would be rounded by
// the database and no longer match the frozen totals.
const (
	PriceScale    int32 = 2
	RateScale     int32 = 2
	QuantityScale int32 = 6

	// TotalScale holds any total built from lines within the scales above.
	TotalScale = QuantityScale + PriceScale + RateScale + 2
)

var hundred = decimal.NewFromInt(100)

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// ApplyRate returns base * rate / 100 without rounding.
func ApplyRate(base Money, rate TaxRate) Money {
	return base.Mul(rate).Div(hundred)
}

// ValidateRate checks that rate lies in [0, 100] with at most RateScale decimals.
func ValidateRate(rate TaxRate) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return fmt.Errorf("tax rate %s out of range [0, 100]", rate.String())
	}
	if !FitsScale(rate, RateScale) {
		return fmt.Errorf("tax rate %s allows at most %d decimals", rate.String(), RateScale)
	}
	return nil
}

// FitsScale reports whether d has no significant digits beyond places decimals.
// Trailing zeros are fine: "10.500" fits 2.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// RoundDisplay rounds half away from zero to DisplayPlaces. Only for presentation.
func RoundDisplay(m Money) Money {
	return m.Round(DisplayPlaces)
}
