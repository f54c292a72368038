package backtest

import (
	"math"
)

// Metrics summarizes a finished run.
type Metrics struct {
	TotalReturn  float64
	CAGR         float64
	MaxDrawdown  float64 // fraction of the running peak, 0..1
	Sharpe       float64
	Volatility   float64 // annualized
	Trades       int
	RoundTrips   int
	Wins         int
	Losses       int
	WinRate      float64 // 0..1
	ProfitFactor float64
	AvgExposure  float64 // mean of position value over equity
}

// ComputeMetrics derives Metrics from the equity curve and trade list.
// rf is the annual risk-free rate.
func ComputeMetrics(res *Result, rf float64, periodsPerYear int) Metrics {
	m := Metrics{Trades: len(res.Trades)}
	if res.InitialCash > 0 {
		m.TotalReturn = res.TerminalEquity/res.InitialCash - 1
	}
	if len(res.Equity) == 0 {
		return m
	}

	ppy := float64(periodsPerYear)
	if ppy <= 0 {
		ppy = 252
	}

	if years := float64(len(res.Equity)) / ppy; years > 0 && res.InitialCash > 0 {
		if growth := res.TerminalEquity / res.InitialCash; growth > 0 {
			m.CAGR = math.Pow(growth, 1/years) - 1
		} else {
			m.CAGR = -1
		}
	}

	m.MaxDrawdown = MaxDrawdown(equityValues(res.Equity))

	var exposure float64
	for _, p := range res.Equity {
		if p.Equity > 0 {
			exposure += math.Abs(p.PositionValue) / p.Equity
		}
	}
	m.AvgExposure = exposure / float64(len(res.Equity))

	rets := res.Returns()
	if len(rets) > 1 {
		mean, sd := meanStd(rets)
		m.Volatility = sd * math.Sqrt(ppy)
		if sd > 0 {
			m.Sharpe = (mean - rf/ppy) / sd * math.Sqrt(ppy)
		}
	}

	pnls := roundTrips(res.Trades)
	m.RoundTrips = len(pnls)
	var gross, loss float64
	for _, p := range pnls {
		if p > 0 {
			m.Wins++
			gross += p
		} else {
			m.Losses++
			loss -= p
		}
	}
	if m.RoundTrips > 0 {
		m.WinRate = float64(m.Wins) / float64(m.RoundTrips)
	}
	if loss > 0 {
		m.ProfitFactor = gross / loss
	}
	return m
}

// MaxDrawdown is the largest peak-to-trough decline as a fraction of the peak.
func MaxDrawdown(equity []float64) float64 {
	var peak, dd float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd = math.Max(dd, (peak-e)/peak)
		}
	}
	return dd
}

func equityValues(pts []EquityPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Equity
	}
	return out
}

func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

type lot struct {
	qty, price, comm float64
}

// roundTrips matches sells against earlier buys first-in first-out and
// returns the net profit of each closed lot. Commission is charged
// pro rata on both legs.
func roundTrips(trades []Trade) []float64 {
	var (
		open []lot
		out  []float64
	)
	for _, t := range trades {
		if t.Quantity <= 0 {
			continue
		}
		if t.Side == Buy {
			open = append(open, lot{qty: t.Quantity, price: t.Price, comm: t.Commission / t.Quantity})
			continue
		}

		remaining := t.Quantity
		exitComm := t.Commission / t.Quantity
		var pnl float64
		matched := false
		for remaining > epsilon && len(open) > 0 {
			l := &open[0]
			q := math.Min(l.qty, remaining)
			pnl += q*(t.Price-l.price) - q*(l.comm+exitComm)
			l.qty -= q
			remaining -= q
			matched = true
			if l.qty <= epsilon {
				open = open[1:]
			}
		}
		if matched {
			out = append(out, pnl)
		}
	}
	return out
}
