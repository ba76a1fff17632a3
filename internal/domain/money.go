package domain

import (
	"fmt"
	"math"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Currencies the platform seeds at account creation. Any other
// ^[A-Z]{3}$ code becomes a valid balance key the first time an offer
// references it.
const (
	CurrencyUSD = "USD"
	CurrencyLBP = "LBP"
)

// ValidCurrency reports whether code is a well-formed currency code.
func ValidCurrency(code string) bool {
	return currencyRegex.MatchString(code)
}

// ToMinor converts a float64 major-unit amount to int64 minor units
// (two decimal places for every currency). It validates that the input
// has at most 2 decimal places and returns an error if more precision
// is provided. Uses math.Round after scaling to handle floating-point
// representation issues.
func ToMinor(f float64) (int64, error) {
	// Multiply by 1000 to check for a third decimal place.
	// Round to avoid floating-point artifacts (e.g., 1.10 * 1000 = 1099.9999...).
	scaled := math.Round(f * 1000)
	if math.Mod(scaled, 10) != 0 {
		return 0, fmt.Errorf("monetary values must have at most 2 decimal places")
	}

	minor := math.Round(f * 100)
	return int64(minor), nil
}

// FromMinor converts an int64 minor-unit amount to a float64 major-unit
// amount.
func FromMinor(m int64) float64 {
	return float64(m) / 100.0
}

// Convert applies an exchange rate to a minor-unit amount and returns
// the converted minor-unit amount, rounded half away from zero. Both
// sides of a conversion use the same minor-unit exponent, so the rate
// applies directly.
func Convert(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
