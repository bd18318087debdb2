// Package core holds the expense domain types, the supported currency set
// and the error taxonomy shared by every other package.
//
// This file contains amount validation for both numeric input and the raw
// text a user types into an amount field.
package core

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmount is the sanity ceiling for a single expense.
const MaxAmount = 1e8

// maxAmountScale is the number of decimal digits accepted in amount text.
const maxAmountScale = 2

var (
	ErrAmountNotFinite   = errors.New("amount is not a finite number")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountTooLarge    = errors.New("amount exceeds maximum")
	ErrAmountFullWidth   = errors.New("amount contains full-width digits")
	ErrAmountFormat      = errors.New("amount must contain digits and at most one decimal point")
	ErrAmountScale       = errors.New("amount has more than two decimal digits")
)

// ValidateAmount checks, in order, that amount is finite, positive and not
// above MaxAmount.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return WrapError(KindValidation, "amount must be a number", ErrAmountNotFinite)
	}
	if amount <= 0 {
		return WrapError(KindValidation, "amount must be greater than zero", ErrAmountNotPositive)
	}
	if amount > MaxAmount {
		return WrapError(KindValidation, "amount must not exceed 100,000,000", ErrAmountTooLarge)
	}
	return nil
}

// ParseAmount converts user-entered text into an amount.
//
// Only half-width ASCII digits and a single dot are accepted, with at most two
// fractional digits. The parsed value is then subject to ValidateAmount.
//
// Examples:
//
//	ParseAmount("1000")    -> 1000, nil
//	ParseAmount("1000.50") -> 1000.5, nil
//	ParseAmount("1.005")   -> error (scale)
//	ParseAmount("１０００")  -> error (full-width)
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewError(KindValidation, "amount is required")
	}
	for _, r := range s {
		if r >= '０' && r <= '９' {
			return 0, WrapError(KindValidation, "use half-width digits", ErrAmountFullWidth)
		}
	}
	digits := 0
	dots := 0
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r == '.':
			dots++
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digits++
		default:
			return 0, WrapError(KindValidation, "amount must be numeric", ErrAmountFormat)
		}
	}
	if dots > 1 || digits == 0 {
		return 0, WrapError(KindValidation, "amount must be numeric", ErrAmountFormat)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, WrapError(KindValidation, "amount must be numeric", err)
	}
	if !d.IsPositive() {
		return 0, WrapError(KindValidation, "amount must be greater than zero", ErrAmountNotPositive)
	}
	if d.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, WrapError(KindValidation, "amount must not exceed 100,000,000", ErrAmountTooLarge)
	}
	if frac := strings.SplitN(s, ".", 2); len(frac) == 2 && len(frac[1]) > maxAmountScale {
		return 0, WrapError(KindValidation, "at most two decimal digits", ErrAmountScale)
	}

	f, _ := d.Float64()
	return f, ValidateAmount(f)
}
