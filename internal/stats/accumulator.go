// Package stats computes statistical views over property sale records:
// price trends, price/size correlation, county comparison and price-bracket
// clustering. All operations are pure functions of their inputs.
package stats

import (
	"math"
	"sort"
)

// accumulator tracks count, mean and variance using Welford's online
// algorithm, which stays numerically stable for large sample counts where a
// naive sum-of-squares would lose precision.
type accumulator struct {
	n    int
	mean float64
	m2   float64
}

func (a *accumulator) add(x float64) {
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
}

func (a *accumulator) count() int {
	return a.n
}

func (a *accumulator) average() float64 {
	if a.n == 0 {
		return 0
	}
	return a.mean
}

// variance returns the population variance.
func (a *accumulator) variance() float64 {
	if a.n == 0 {
		return 0
	}
	return a.m2 / float64(a.n)
}

func (a *accumulator) stddev() float64 {
	return math.Sqrt(a.variance())
}

// median returns the middle value of the samples, averaging the two central
// values for even counts. The input slice is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// quantile returns the q-th quantile (0 <= q <= 1) of sorted values using
// linear interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// interquartileRange returns Q3-Q1 of the samples. The input is not modified.
func interquartileRange(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantile(sorted, 0.75) - quantile(sorted, 0.25)
}
