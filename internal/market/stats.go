package market

import (
	"math"
	"sort"
)

// winsorize drops the top and bottom p fraction of the positive values,
// guarding the medians against outlier listings (signed copies, junk lots).
func winsorize(vals []float64, p float64) []float64 {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v > 0 {
			xs = append(xs, v)
		}
	}
	sort.Float64s(xs)
	if len(xs) < 3 {
		return xs
	}
	k := int(float64(len(xs)) * p)
	if k < 1 {
		k = 1
	}
	trimmed := xs[k : len(xs)-k]
	if len(trimmed) == 0 {
		return xs
	}
	return trimmed
}

// Median returns the winsorized median of the positive values, rounded to
// cents, or 0 when no positive values exist.
func Median(vals []float64) float64 {
	xs := winsorize(vals, 0.10)
	if len(xs) == 0 {
		return 0
	}
	mid := len(xs) / 2
	var m float64
	if len(xs)%2 == 1 {
		m = xs[mid]
	} else {
		m = (xs[mid-1] + xs[mid]) / 2
	}
	return math.Round(m*100) / 100
}
