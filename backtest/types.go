package backtest

import (
	"time"
)

// Side of a fill.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Sign is +1 for buys and -1 for sells.
func (s Side) Sign() float64 {
	if s == Sell {
		return -1
	}
	return 1
}

// Trade reasons.
const (
	ReasonSignal      = "signal"
	ReasonLiquidation = "liquidation"
)

// Halt and clamp reasons.
const (
	HaltBankruptcy    = "bankruptcy"
	ClampInsufficient = "insufficient_funds"
	GapInvalidBar     = "invalid_bar"
)

// Trade is one simulated fill. Signal-driven trades always execute on the
// bar after SignalTime. Forced liquidations carry a zero SignalTime.
type Trade struct {
	ID         string
	SignalTime time.Time
	Time       time.Time
	Asset      string
	Side       Side
	Quantity   float64
	Price      float64 // fill price after slippage
	Commission float64
	Slippage   float64 // cost of slippage in cash
	Prior      float64 // position before the fill
	Target     float64 // position after the fill
	Reason     string
}

// Notional is quantity times fill price.
func (t Trade) Notional() float64 { return t.Quantity * t.Price }

// Position in a single asset. Quantity is fractional and, in long-only mode,
// never negative.
type Position struct {
	Asset    string
	Quantity float64
	AvgCost  float64
}

// EquityPoint is the portfolio marked at a bar close.
type EquityPoint struct {
	Time          time.Time
	Cash          float64
	Quantity      float64
	Mark          float64
	PositionValue float64
	Equity        float64
}

// PortfolioState is owned by one run and never shared.
type PortfolioState struct {
	Cash      float64
	Positions map[string]Position
	Equity    []EquityPoint
}

// Value marks every position at marks and adds cash.
func (p *PortfolioState) Value(marks map[string]float64) float64 {
	v := p.Cash
	for asset, pos := range p.Positions {
		v += pos.Quantity * marks[asset]
	}
	return v
}

// Clamp records an order that was reduced or dropped before filling.
type Clamp struct {
	Time      time.Time
	Asset     string
	Requested float64 // quantity asked for
	Filled    float64 // quantity actually traded
	Reason    string
}

// DataGap marks a bar that could not be traded or marked.
type DataGap struct {
	Time   time.Time
	Index  int
	Reason string
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Asset    string
	Strategy string

	InitialCash    float64
	TerminalEquity float64
	Trades         []Trade
	Equity         []EquityPoint
	Final          PortfolioState

	Halted     bool
	HaltReason string
	Clamps     []Clamp
	DataGaps   []DataGap
	Metrics    Metrics
}

// Returns is the period-over-period portfolio return series
// (E_t - E_{t-1}) / E_{t-1}. Periods after a zero equity are skipped.
func (r *Result) Returns() []float64 {
	if len(r.Equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(r.Equity)-1)
	for i := 1; i < len(r.Equity); i++ {
		prev := r.Equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		out = append(out, (r.Equity[i].Equity-prev)/prev)
	}
	return out
}
