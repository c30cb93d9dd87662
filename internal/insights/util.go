package insights

import "math"

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// roundCurrency rounds through integer minor units so repeated rounding of the
// same amount always lands on the same representable value.
func roundCurrency(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}

	factor := math.Pow(10, float64(decimals))
	minor := int64(math.Round(v * factor))
	return float64(minor) / factor
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// between maps a unit draw in [0,1) onto [lo,hi].
func between(draw, lo, hi float64) float64 {
	return lo + clamp(draw, 0, 1)*(hi-lo)
}
