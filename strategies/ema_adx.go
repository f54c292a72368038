package strategies

import (
	"github.com/rustyeddy/quantlab/indicators"
	"github.com/rustyeddy/quantlab/market"
)

// EMAADX is an EMA cross that only speaks while ADX shows a trend of at
// least ADXMin. Below that it returns 0, which holds the stance in latch mode.
type EMAADX struct {
	cross  *EMACross
	adx    *indicators.ADX
	adxMin float64
	tr     tracker
}

func init() {
	Register("ema-adx", "ema_adx.go", func(p Params) (Strategy, error) {
		cross, err := NewEMACross(p.Fast, p.Slow)
		if err != nil {
			return nil, err
		}
		return &EMAADX{cross: cross, adx: indicators.NewADX(p.ADXPeriod), adxMin: p.ADXMin}, nil
	})
}

func (s *EMAADX) Name() string { return "ema-adx" }

func (s *EMAADX) Warmup() int {
	return max(s.cross.Warmup(), s.adx.Warmup())
}

func (s *EMAADX) Reset() {
	s.cross.Reset()
	s.adx.Reset()
	s.tr.reset()
}

func (s *EMAADX) Signal(bars []market.Bar) float64 {
	s.tr.advance(bars, s.adx.Reset, s.adx.Update)
	sig := s.cross.Signal(bars)
	if !s.adx.Ready() || s.adx.Value() < s.adxMin {
		return 0
	}
	return sig
}
