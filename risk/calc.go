package risk

import (
	"math"
	"sort"
)

// percentile returns the p-th percentile (0..100) of sorted values using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// meanStd returns the mean and population standard deviation.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return percentile(s, 50)
}

// path compounds start through n returns, capping each at a total loss. It
// reports the terminal value, the largest drawdown from a running peak and
// whether the path was wiped out.
func path(start float64, n int, next func(i int) float64) (terminal, maxDD float64, wiped bool) {
	eq, peak := start, start
	for i := 0; i < n; i++ {
		r := next(i)
		if r <= -1 {
			r = -1
			wiped = true
		}
		eq *= 1 + r
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			maxDD = math.Max(maxDD, (peak-eq)/peak)
		}
	}
	return eq, maxDD, wiped
}
