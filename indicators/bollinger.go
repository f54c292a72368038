package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quantlab/market"
)

// Bollinger tracks a moving average with bands k population standard
// deviations above and below it.
type Bollinger struct {
	ma *SimpleMA
	k  float64
}

func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{ma: NewMA(period), k: k}
}

func (b *Bollinger) Name() string          { return fmt.Sprintf("BB(%d,%g)", b.ma.period, b.k) }
func (b *Bollinger) Warmup() int           { return b.ma.Warmup() }
func (b *Bollinger) Reset()                { b.ma.Reset() }
func (b *Bollinger) Update(bar market.Bar) { b.ma.Update(bar) }
func (b *Bollinger) Ready() bool           { return b.ma.Ready() }

// Value is the middle band.
func (b *Bollinger) Value() float64 { return b.ma.Value() }

// Bands returns the lower, middle and upper bands.
func (b *Bollinger) Bands() (lower, middle, upper float64) {
	if !b.Ready() {
		return 0, 0, 0
	}
	mean := b.ma.Value()
	var ss float64
	for _, v := range b.ma.window() {
		d := v - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(b.ma.period))
	return mean - b.k*sd, mean, mean + b.k*sd
}
