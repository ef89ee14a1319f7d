package model

import "math"

// cleanEpsilon is the largest rounding error CleanFloat accepts.
const cleanEpsilon = 1e-10

// CleanFloat rounds v to the fewest decimal places (1 to 15) that reproduce it
// within 1e-10, removing artifacts such as 0.33999999999999986.
func CleanFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	for places := 1; places <= 15; places++ {
		scale := math.Pow(10, float64(places))
		rounded := math.Round(v*scale) / scale
		if math.Abs(v-rounded) < cleanEpsilon {
			return rounded
		}
	}
	return v
}
