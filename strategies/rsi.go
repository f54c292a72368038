package strategies

import (
	"fmt"

	"github.com/rustyeddy/quantlab/indicators"
	"github.com/rustyeddy/quantlab/market"
)

// RSIReversion buys oversold readings below Lower and exits overbought
// readings above Upper.
type RSIReversion struct {
	lower, upper float64
	rsi          *indicators.RSI
	tr           tracker
}

func init() {
	Register("rsi", "rsi.go", func(p Params) (Strategy, error) {
		if p.Lower >= p.Upper || p.Upper > 100 {
			return nil, fmt.Errorf("rsi: need 0 < lower < upper <= 100, got %g/%g", p.Lower, p.Upper)
		}
		return &RSIReversion{lower: p.Lower, upper: p.Upper, rsi: indicators.NewRSI(p.Period)}, nil
	})
}

func (s *RSIReversion) Name() string { return "rsi" }
func (s *RSIReversion) Warmup() int  { return s.rsi.Warmup() }

func (s *RSIReversion) Reset() {
	s.rsi.Reset()
	s.tr.reset()
}

func (s *RSIReversion) Signal(bars []market.Bar) float64 {
	s.tr.advance(bars, s.rsi.Reset, s.rsi.Update)
	if !s.rsi.Ready() {
		return 0
	}
	switch v := s.rsi.Value(); {
	case v < s.lower:
		return 1
	case v > s.upper:
		return -1
	}
	return 0
}
