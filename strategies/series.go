package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/quantlab/market"
)

// Series replays precomputed signals keyed by bar time. Bars without an
// entry read as 0.
type Series struct {
	name    string
	signals map[int64]float64
}

// NewSeries builds a Series from externally produced signals.
func NewSeries(name string, signals []market.Signal) *Series {
	s := &Series{name: name, signals: make(map[int64]float64, len(signals))}
	for _, sig := range signals {
		s.signals[sig.Time.UnixNano()] = sig.Value
	}
	return s
}

// SeriesFor pairs values with bar times one to one.
func SeriesFor(name string, bars []market.Bar, values []float64) (*Series, error) {
	if len(values) != len(bars) {
		return nil, fmt.Errorf("series %q: %d values for %d bars", name, len(values), len(bars))
	}
	sigs := make([]market.Signal, len(bars))
	for i, b := range bars {
		sigs[i] = market.Signal{Time: b.Time, Value: values[i]}
	}
	return NewSeries(name, sigs), nil
}

func (s *Series) Name() string { return s.name }
func (s *Series) Warmup() int  { return 0 }
func (s *Series) Len() int     { return len(s.signals) }

func (s *Series) Signal(bars []market.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	return s.At(bars[len(bars)-1].Time)
}

// At returns the signal recorded for t.
func (s *Series) At(t time.Time) float64 {
	return s.signals[t.UnixNano()]
}

// SeriesSource is the source text gated for externally supplied signals.
func SeriesSource() string {
	src, err := sources.ReadFile("series.go")
	if err != nil {
		panic(err)
	}
	return string(src)
}
