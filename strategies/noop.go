package strategies

import "github.com/rustyeddy/quantlab/market"

// NoopStrategy never takes a position.
type NoopStrategy struct{}

func init() {
	Register("noop", "noop.go", func(Params) (Strategy, error) { return NoopStrategy{}, nil })
}

func (NoopStrategy) Name() string                     { return "noop" }
func (NoopStrategy) Warmup() int                      { return 0 }
func (NoopStrategy) Signal(bars []market.Bar) float64 { return 0 }
