// Package core provides money parsing utilities.
//
// Amounts are plain real numbers in the account currency. Parsing goes
// through decimal so that form input like "0.1" is read exactly before it is
// stored as a float.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a submitted amount to a number.
//
// An empty value is read as zero, matching how the entry form treats a
// missing amount. Negative values and anything that is not a number are
// rejected.
//
// Examples:
//
//	ParseAmount("15000")  -> 15000, nil
//	ParseAmount(" 12.5 ") -> 12.5, nil
//	ParseAmount("")       -> 0, nil
//	ParseAmount("-3")     -> 0, ErrNegativeAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	return d.InexactFloat64(), nil
}
