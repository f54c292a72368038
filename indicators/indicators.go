// Package indicators provides streaming technical indicators over bars.
package indicators

import "github.com/rustyeddy/quantlab/market"

// Indicator computes a single streaming value from bars.
// It is deterministic: the same bar sequence always yields the same value.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value, or 0 before Ready.
	Value() float64
}

// Feed resets ind and replays bars through it, returning the final value.
func Feed(ind Indicator, bars []market.Bar) float64 {
	ind.Reset()
	for _, b := range bars {
		ind.Update(b)
	}
	return ind.Value()
}
