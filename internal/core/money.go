// Package core provides money parsing and rounding utilities.
//
// Amounts are kept as decimals while summing so that per-card totals add up
// exactly to the table total; they are converted to float64 only for output.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a spreadsheet cell into a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, a leading
// sign and space or no-break-space digit grouping.
//
// Examples:
//
//	ParseAmount("-160,89")   -> -160.89, nil
//	ParseAmount("1 250.00")  -> 1250, nil
//	ParseAmount("")          -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseOptionalAmount returns nil for blank cells.
func ParseOptionalAmount(s string) *decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return nil
	}
	return &d
}

// Round2 rounds half away from zero to two places and returns a float64.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
