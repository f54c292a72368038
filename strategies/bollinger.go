package strategies

import (
	"github.com/rustyeddy/quantlab/indicators"
	"github.com/rustyeddy/quantlab/market"
)

// BollingerBreakout enters on a close above the upper band and exits on a
// close below the middle band.
type BollingerBreakout struct {
	bb *indicators.Bollinger
	tr tracker
}

func init() {
	Register("bollinger", "bollinger.go", func(p Params) (Strategy, error) {
		return &BollingerBreakout{bb: indicators.NewBollinger(p.Window, p.K)}, nil
	})
}

func (s *BollingerBreakout) Name() string { return "bollinger" }
func (s *BollingerBreakout) Warmup() int  { return s.bb.Warmup() }

func (s *BollingerBreakout) Reset() {
	s.bb.Reset()
	s.tr.reset()
}

func (s *BollingerBreakout) Signal(bars []market.Bar) float64 {
	s.tr.advance(bars, s.bb.Reset, s.bb.Update)
	if !s.bb.Ready() || len(bars) == 0 {
		return 0
	}

	last := bars[len(bars)-1].Close
	_, mid, upper := s.bb.Bands()
	switch {
	case last > upper:
		return 1
	case last < mid:
		return -1
	}
	return 0
}
