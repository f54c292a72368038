package strategies

import (
	"fmt"

	"github.com/rustyeddy/quantlab/indicators"
	"github.com/rustyeddy/quantlab/market"
)

// MATrend is long while the close is above its moving average and signals
// an exit while it is below.
type MATrend struct {
	window int
	ma     *indicators.SimpleMA
	tr     tracker
}

func init() {
	Register("ma-trend", "ma_trend.go", func(p Params) (Strategy, error) {
		return NewMATrend(p.Window)
	})
}

func NewMATrend(window int) (*MATrend, error) {
	if window < 1 {
		return nil, fmt.Errorf("ma-trend: window must be positive, got %d", window)
	}
	return &MATrend{window: window, ma: indicators.NewMA(window)}, nil
}

func (s *MATrend) Name() string { return "ma-trend" }
func (s *MATrend) Warmup() int  { return s.window }

func (s *MATrend) Reset() {
	s.ma.Reset()
	s.tr.reset()
}

func (s *MATrend) Signal(bars []market.Bar) float64 {
	s.tr.advance(bars, s.ma.Reset, s.ma.Update)
	if !s.ma.Ready() || len(bars) == 0 {
		return 0
	}

	last := bars[len(bars)-1].Close
	switch avg := s.ma.Value(); {
	case last > avg:
		return 1
	case last < avg:
		return -1
	}
	return 0
}
