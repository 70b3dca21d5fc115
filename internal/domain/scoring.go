package domain

import (
	"math"
	"sort"
)

const (
	// epsVol guards the inverse-volatility factor against division by ~0.
	epsVol = 1e-4
	// maxVolFactor caps the size inflation for extremely quiet names.
	maxVolFactor = 3.0
)

// ScoreWeights parameterize the momentum/volatility composite. Two house
// variants exist (0.5/0.5/0.2 and 0.6/0.4/0.2); the weights are always
// injected, never hardcoded at call sites.
type ScoreWeights struct {
	R7    float64
	R30   float64
	Vol20 float64
}

// Score is the ranking statistic: momentum reward minus volatility penalty.
//
//	score = w7·r7 + w30·r30 − wv·vol20
func Score(r7, r30, vol20 float64, w ScoreWeights) float64 {
	return w.R7*r7 + w.R30*r30 - w.Vol20*vol20
}

// VolFactor converts trailing volatility into a sizing multiplier in
// [0, maxVolFactor]: quiet names size up, noisy names size down.
func VolFactor(vol20 float64) float64 {
	return math.Min(1.0/math.Max(vol20, epsVol), maxVolFactor)
}

// RoundQty rounds a quantity to QtyDecimals decimal places.
func RoundQty(q float64) float64 {
	const scale = 1e6
	return math.Round(q*scale) / scale
}

// Quantile returns the q-th quantile (0 ≤ q ≤ 1) of values using linear
// interpolation between order statistics, matching the convention the
// research pipeline has always used. Returns 0 for an empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median is the 50th percentile.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}
