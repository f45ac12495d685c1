package types

import "math"

// RoundToUnit rounds value to the nearest multiple of the currency rounding
// unit. A non-positive unit leaves the value untouched.
func RoundToUnit(value, unit float64) float64 {
	if unit <= 0 {
		return value
	}
	return math.Round(value/unit) * unit
}

// RoundDecimals rounds value to the given number of decimal digits.
func RoundDecimals(value float64, decimals int) float64 {
	if decimals < 0 {
		return value
	}
	shift := math.Pow(10, float64(decimals))
	return math.Round(value*shift) / shift
}

// CurrencyDecimals derives the number of displayed decimal digits from a
// rounding unit, e.g. 0.01 yields 2. A non-positive unit yields 0.
func CurrencyDecimals(rounding float64) int {
	if rounding <= 0 {
		return 0
	}
	return int(math.Ceil(math.Log(1.0/rounding) / math.Log(10)))
}
