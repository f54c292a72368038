package backtest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func curveOf(values ...float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	for i, v := range values {
		out[i] = EquityPoint{Time: day(i), Cash: v, Equity: v}
	}
	return out
}

func TestComputeMetrics(t *testing.T) {
	t.Parallel()

	res := &Result{
		InitialCash:    100,
		TerminalEquity: 120,
		Equity:         curveOf(100, 110, 99, 120),
		Trades: []Trade{
			{Side: Buy, Quantity: 10, Price: 10},
			{Side: Sell, Quantity: 10, Price: 12},
			{Side: Buy, Quantity: 5, Price: 12},
			{Side: Sell, Quantity: 5, Price: 11},
		},
	}
	m := ComputeMetrics(res, 0, 252)

	assert.InDelta(t, 0.2, m.TotalReturn, 1e-12)
	assert.InDelta(t, 0.1, m.MaxDrawdown, 1e-12)
	assert.Equal(t, 4, m.Trades)
	assert.Equal(t, 2, m.RoundTrips)
	assert.Equal(t, 1, m.Wins)
	assert.Equal(t, 1, m.Losses)
	assert.InDelta(t, 0.5, m.WinRate, 1e-12)
	assert.InDelta(t, 4, m.ProfitFactor, 1e-12)
	assert.Greater(t, m.CAGR, 0.2)
	assert.NotZero(t, m.Sharpe)
	assert.Zero(t, m.AvgExposure)
}

func TestComputeMetricsEmpty(t *testing.T) {
	t.Parallel()

	m := ComputeMetrics(&Result{InitialCash: 100, TerminalEquity: 100}, 0.02, 252)
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.Sharpe)
	assert.Zero(t, m.RoundTrips)
}

func TestRoundTripsFIFO(t *testing.T) {
	t.Parallel()

	pnls := roundTrips([]Trade{
		{Side: Buy, Quantity: 2, Price: 10, Commission: 2},
		{Side: Buy, Quantity: 2, Price: 20},
		{Side: Sell, Quantity: 3, Price: 15, Commission: 3},
		{Side: Sell, Quantity: 1, Price: 25},
	})
	// 2@10 and 1@20 against 3@15: 10 - 5, less 2 entry and 3 exit commission.
	assert.InDelta(t, 0, pnls[0], 1e-12)
	assert.InDelta(t, 5, pnls[1], 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	assert.Zero(t, MaxDrawdown(nil))
	assert.Zero(t, MaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 0.5, MaxDrawdown([]float64{10, 5, 8, 20, 12}), 1e-12)
	assert.InDelta(t, 1, MaxDrawdown([]float64{10, 0}), 1e-12)
}

func TestReturnsSkipsZeroEquity(t *testing.T) {
	t.Parallel()

	res := &Result{Equity: curveOf(100, 110, 0, 5)}
	assert.InDeltaSlice(t, []float64{0.1, -1}, res.Returns(), 1e-12)
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	res := &Result{
		RunID:          "01RUN",
		Asset:          "SPY",
		Strategy:       "ma_trend",
		InitialCash:    100,
		TerminalEquity: 0.0005,
		Equity:         curveOf(100, 0.0005),
		Halted:         true,
		HaltReason:     HaltBankruptcy,
		Clamps:         []Clamp{{Reason: ClampInsufficient}},
	}
	res.Metrics = ComputeMetrics(res, 0, 252)

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "Run ID:        01RUN")
	assert.Contains(t, out, "Bars:          2")
	assert.Contains(t, out, "- halted: bankruptcy")
	assert.Contains(t, out, "- 1 orders clamped")
	assert.NotContains(t, out, "data gaps")
}
