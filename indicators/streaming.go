package indicators

import (
	"fmt"

	"github.com/rustyeddy/quantlab/market"
)

// SimpleMA is a streaming Simple Moving Average over closes, kept in a ring.
type SimpleMA struct {
	period int
	ring   []float64
	next   int
	filled int
	sum    float64
}

// NewMA creates a new Simple Moving Average indicator with the given period
func NewMA(period int) *SimpleMA {
	if period < 1 {
		period = 1
	}
	return &SimpleMA{
		period: period,
		ring:   make([]float64, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	for i := range m.ring {
		m.ring[i] = 0
	}
	m.next, m.filled, m.sum = 0, 0, 0
}

func (m *SimpleMA) Update(b market.Bar) {
	m.sum += b.Close - m.ring[m.next]
	m.ring[m.next] = b.Close
	m.next = (m.next + 1) % m.period
	if m.filled < m.period {
		m.filled++
	}
}

func (m *SimpleMA) Ready() bool {
	return m.filled >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}

// window returns the ring contents; order does not matter to callers.
func (m *SimpleMA) window() []float64 {
	return m.ring
}

// ExponentialMA is a streaming Exponential Moving Average indicator
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates a new Exponential Moving Average indicator with the given period
func NewEMA(period int) *ExponentialMA {
	if period < 1 {
		period = 1
	}
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(b market.Bar) {
	if e.count < e.period {
		// Seed with the SMA of the first period closes.
		e.warmupSum += b.Close
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (b.Close-e.ema)*e.multiplier + e.ema
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}
