// Package core provides amount parsing utilities.
//
// Amounts are decimal magnitudes. Parsing accepts both dot (12.34) and
// comma (12,34) decimal separators and rejects signs, so a stored amount
// is never negative.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into a non-negative decimal amount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
//	ParseAmount("abc")   -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, fmt.Errorf("%w: %q must be an unsigned number", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals, signed when signed is true.
func FormatAmount(d decimal.Decimal, signed bool) string {
	s := d.StringFixed(2)
	if signed && d.IsPositive() {
		return "+" + s
	}
	return s
}
