package strategies

import (
	"fmt"

	"github.com/rustyeddy/quantlab/indicators"
	"github.com/rustyeddy/quantlab/market"
)

// EMACross is long while the fast EMA is above the slow EMA and signals an
// exit while it is below.
type EMACross struct {
	fastPeriod int
	slowPeriod int

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA
	tr   tracker
}

func init() {
	Register("ema-cross", "ema_cross.go", func(p Params) (Strategy, error) {
		return NewEMACross(p.Fast, p.Slow)
	})
}

func NewEMACross(fast, slow int) (*EMACross, error) {
	if fast < 1 || slow < 1 {
		return nil, fmt.Errorf("ema-cross: periods must be positive, got %d/%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("ema-cross: fast period %d must be below slow period %d", fast, slow)
	}
	return &EMACross{
		fastPeriod: fast,
		slowPeriod: slow,
		fast:       indicators.NewEMA(fast),
		slow:       indicators.NewEMA(slow),
	}, nil
}

func (s *EMACross) Name() string { return "ema-cross" }
func (s *EMACross) Warmup() int  { return s.slowPeriod }

func (s *EMACross) Reset() {
	s.reset()
	s.tr.reset()
}

func (s *EMACross) reset() {
	s.fast.Reset()
	s.slow.Reset()
}

func (s *EMACross) update(b market.Bar) {
	s.fast.Update(b)
	s.slow.Update(b)
}

func (s *EMACross) Signal(bars []market.Bar) float64 {
	s.tr.advance(bars, s.reset, s.update)
	if !s.fast.Ready() || !s.slow.Ready() {
		return 0
	}

	diff := s.fast.Value() - s.slow.Value()
	switch {
	case diff > 0:
		return 1
	case diff < 0:
		return -1
	}
	return 0
}
