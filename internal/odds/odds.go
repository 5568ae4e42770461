// Package odds provides conversions between American and decimal odds and
// expected-value math. Every function returns a zero-value sentinel on an
// invalid domain instead of an error so that one bad quote can never abort
// a batch; invalid markets are excluded upstream at normalization.
package odds

import "math"

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.50, -150 -> 1.67. Zero is treated as even money (2.0).
func AmericanToDecimal(american float64) float64 {
	if american == 0 {
		return 2.0
	}
	if american > 0 {
		return 1.0 + american/100.0
	}
	return 1.0 + 100.0/math.Abs(american)
}

// DecimalToAmerican converts decimal odds to American odds.
// 2.50 -> +150, 1.67 -> -150. Decimal odds <= 1.0 return 0.
func DecimalToAmerican(decimal float64) float64 {
	if decimal <= 1.0 {
		return 0
	}
	if decimal >= 2.0 {
		return math.Round((decimal - 1.0) * 100.0)
	}
	return math.Round(-100.0 / (decimal - 1.0))
}

// ImpliedProbability returns the market-implied probability 1/d for decimal
// odds d > 1, or 0 for an invalid price. No vig is removed.
func ImpliedProbability(decimal float64) float64 {
	if decimal <= 1.0 {
		return 0
	}
	return 1.0 / decimal
}

// ExpectedValue returns expected profit per unit stake for a bet priced at
// decimal odds with true win probability p:
//
//	EV = p*(decimal-1) - (1-p)
//
// The probability is the simulator-derived cover probability, not the
// market's own implied probability; the difference between the two is the
// detected edge. Invalid odds return 0.
func ExpectedValue(p, decimal float64) float64 {
	if decimal <= 1.0 {
		return 0
	}
	return p*(decimal-1.0) - (1.0 - p)
}
