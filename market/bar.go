package market

import (
	"math"
	"time"
)

// Bar is one OHLCV period for a single asset. Bars are values; once stored in
// a BarSet they are never modified.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tradable reports whether the bar carries a usable open and close. Bars that
// fail this check are treated as data gaps by the engine.
func (b Bar) Tradable() bool {
	return finitePositive(b.Open) && finitePositive(b.Close)
}

var nan = math.NaN()

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
