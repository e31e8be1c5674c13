// Package money converts between rupee decimals used at the API and settings
// boundary and the integer paise the ledger stores.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var paisePerRupee = decimal.NewFromInt(100)

// ParseRupees parses a decimal rupee string such as "199" or "49.50" into paise.
// More than two fractional digits is rejected rather than rounded.
func ParseRupees(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal converts a rupee decimal to paise. Values whose paise do not
// fit in an int64 are rejected.
func FromDecimal(d decimal.Decimal) (int64, error) {
	p := d.Mul(paisePerRupee)
	if !p.Equal(p.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	if !p.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return p.IntPart(), nil
}

// ToDecimal converts paise to a rupee decimal.
func ToDecimal(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

// Format renders paise as a rupee string with two decimals, e.g. 500 -> "5.00".
func Format(paise int64) string {
	return ToDecimal(paise).StringFixed(2)
}
