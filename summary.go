package main

import (
	"math"
	"slices"
)

// Summarize computes the mean, median, requested percentiles and failure rate of a
// set of ending capitals. The input slice is left untouched.
func Summarize(capitals []float64, percents []float64) (PortfolioSummary, error) {
	if len(capitals) == 0 {
		return PortfolioSummary{}, EmptyInputError{}
	}

	sorted := slices.Clone(capitals)
	slices.Sort(sorted)

	sum := 0.0
	failures := 0
	for _, c := range capitals {
		sum += c
		if c == 0 {
			failures++
		}
	}

	summary := PortfolioSummary{
		Trials:      len(capitals),
		Mean:        sum / float64(len(capitals)),
		Median:      Percentile(sorted, 50),
		Percentiles: make([]PercentileStat, len(percents)),
		FailureRate: float64(failures) / float64(len(capitals)),
	}
	for i, p := range percents {
		summary.Percentiles[i] = PercentileStat{Percent: p, Value: Percentile(sorted, p)}
	}

	return summary, nil
}

// Percentile returns the p-th percentile (0-100) of an ascending slice, interpolating
// linearly between the two closest ranks. Rank is p/100 * (n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lower)
	if frac == 0 {
		return sorted[lower]
	}
	return lerp(sorted[lower], sorted[upper], frac)
}

// lerp interpolates from the nearer endpoint so results match NumPy's percentile
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}
