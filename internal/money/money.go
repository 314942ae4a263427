// Package money holds the currency list and the decimal tolerances used when
// comparing amounts that went through percentage arithmetic.
package money

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used by reports when no entries exist yet.
const DefaultCurrency = "USD"

// SupportedCurrencies lists the currencies an expense or budget entry may use.
// Amounts are tracked per currency and never converted.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "INR", "CAD", "AUD", "JPY", "CHF", "CNY", "SGD"}

var (
	// AmountTolerance bounds the drift allowed between a total and the sum of its parts.
	AmountTolerance = decimal.RequireFromString("0.01")
	// ZeroTolerance is the magnitude at or below which an amount counts as zero.
	ZeroTolerance = decimal.RequireFromString("0.001")

	hundred = decimal.NewFromInt(100)
)

// IsSupported reports whether code is one of SupportedCurrencies.
func IsSupported(code string) bool {
	return slices.Contains(SupportedCurrencies, code)
}

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns amount * pct / 100.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Hundred is the expected sum of a percentage split.
func Hundred() decimal.Decimal {
	return hundred
}

// WithinTolerance reports whether |a-b| <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// IsZero reports whether d is within ZeroTolerance of zero.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(ZeroTolerance)
}
