package backtest

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/pkg/id"
)

// run is the mutable state of one simulation.
type run struct {
	cfg config.Simulation
	log zerolog.Logger
	res *Result

	cash    float64
	pos     Position
	last    float64
	hasMark bool
}

func (r *run) equityAt(price float64) float64 {
	return r.cash + r.pos.Quantity*price
}

func (r *run) commission(notional float64) float64 {
	if notional <= 0 {
		return 0
	}
	return math.Max(notional*r.cfg.CommissionRate, r.cfg.MinCommission)
}

// rebalance moves the position toward the quantity implied by exposure at
// this bar's open.
func (r *run) rebalance(b market.Bar, exposure float64, signalTime time.Time) {
	equity := r.equityAt(b.Open)

	var value float64
	switch r.cfg.SizingMethod {
	case config.SizingFixedAmount:
		value = r.cfg.SizingTarget * exposure
	default:
		value = equity * r.cfg.SizingTarget * exposure
	}
	if math.Abs(value) < equity*r.cfg.MinExposure {
		value = 0
	}

	target := value / b.Open
	if r.cfg.LongOnly && target < 0 {
		target = 0
	}

	delta := target - r.pos.Quantity
	switch {
	case delta > epsilon:
		r.buy(b, delta, target, signalTime)
	case delta < -epsilon:
		r.sell(b.Time, b.Open, r.cfg.SlippageRate, -delta, target, signalTime, ReasonSignal)
	}
}

// affordable is the largest quantity whose cost plus commission fits in cash.
func (r *run) affordable(px float64) float64 {
	rate := r.cfg.CommissionRate
	q := r.cash / (px * (1 + rate))
	if q*px*rate < r.cfg.MinCommission {
		q = (r.cash - r.cfg.MinCommission) / px
	}
	return math.Max(q, 0)
}

func (r *run) buy(b market.Bar, qty, target float64, signalTime time.Time) {
	px := b.Open * (1 + r.cfg.SlippageRate)

	if qty*px+r.commission(qty*px) > r.cash+epsilon {
		filled := math.Min(qty, r.affordable(px))
		if filled <= epsilon {
			filled = 0
		}
		r.res.Clamps = append(r.res.Clamps, Clamp{
			Time:      b.Time,
			Asset:     r.pos.Asset,
			Requested: qty,
			Filled:    filled,
			Reason:    ClampInsufficient,
		})
		r.log.Warn().
			Time("time", b.Time).
			Float64("requested", qty).
			Float64("filled", filled).
			Float64("cash", r.cash).
			Str("reason", ClampInsufficient).
			Msg("buy clamped")
		if filled == 0 {
			return
		}
		qty = filled
		target = r.pos.Quantity + qty
	}

	notional := qty * px
	comm := r.commission(notional)
	r.cash -= notional + comm
	if r.cash < 0 && r.cash > -epsilon {
		r.cash = 0
	}

	prior := r.pos.Quantity
	if prior >= 0 {
		r.pos.AvgCost = (prior*r.pos.AvgCost + notional) / (prior + qty)
	} else if target > 0 {
		r.pos.AvgCost = px
	}
	r.pos.Quantity = target
	if math.Abs(r.pos.Quantity) < epsilon {
		r.pos.Quantity, r.pos.AvgCost = 0, 0
	}

	r.fill(Trade{
		SignalTime: signalTime,
		Time:       b.Time,
		Side:       Buy,
		Quantity:   qty,
		Price:      px,
		Commission: comm,
		Slippage:   (px - b.Open) * qty,
		Prior:      prior,
		Target:     r.pos.Quantity,
		Reason:     ReasonSignal,
	})
}

// sell fills qty at price less slippage. Commission never takes cash below
// zero.
func (r *run) sell(at time.Time, price, slippage, qty, target float64, signalTime time.Time, reason string) {
	px := price * (1 - slippage)
	notional := qty * px
	comm := r.commission(notional)
	if comm > r.cash+notional {
		comm = math.Max(r.cash+notional, 0)
	}
	r.cash += notional - comm

	prior := r.pos.Quantity
	if prior > 0 && target < 0 {
		r.pos.AvgCost = px
	} else if prior <= 0 {
		short := -prior
		r.pos.AvgCost = (short*r.pos.AvgCost + notional) / (short + qty)
	}
	r.pos.Quantity = target
	if math.Abs(r.pos.Quantity) < epsilon {
		r.pos.Quantity, r.pos.AvgCost = 0, 0
	}

	r.fill(Trade{
		SignalTime: signalTime,
		Time:       at,
		Side:       Sell,
		Quantity:   qty,
		Price:      px,
		Commission: comm,
		Slippage:   (price - px) * qty,
		Prior:      prior,
		Target:     r.pos.Quantity,
		Reason:     reason,
	})
}

func (r *run) fill(t Trade) {
	t.ID = id.NewAt(t.Time)
	t.Asset = r.pos.Asset
	r.res.Trades = append(r.res.Trades, t)
	r.log.Debug().
		Str("side", string(t.Side)).
		Float64("qty", t.Quantity).
		Float64("px", t.Price).
		Float64("commission", t.Commission).
		Float64("position", t.Target).
		Float64("cash", r.cash).
		Str("reason", t.Reason).
		Time("time", t.Time).
		Msg("fill")
}

func (r *run) mark(price float64) {
	r.last = price
	r.hasMark = true
}

func (r *run) insolvent() bool {
	return r.equityAt(r.last) <= r.cfg.MinEquity
}

// liquidate closes everything at the current mark and halts the run.
func (r *run) liquidate(b market.Bar) {
	switch q := r.pos.Quantity; {
	case q > epsilon:
		r.sell(b.Time, r.last, 0, q, 0, time.Time{}, ReasonLiquidation)
	case q < -epsilon:
		r.cover(b.Time, -q)
	}
	if r.cash < 0 {
		r.cash = 0
	}

	r.res.Halted = true
	r.res.HaltReason = HaltBankruptcy
	r.point(b.Time)
	r.log.Warn().
		Time("time", b.Time).
		Float64("equity", r.cash).
		Str("reason", HaltBankruptcy).
		Msg("run halted")
}

// cover buys back a short at the mark during liquidation.
func (r *run) cover(at time.Time, qty float64) {
	notional := qty * r.last
	comm := math.Min(r.commission(notional), math.Max(r.cash-notional, 0))
	prior := r.pos.Quantity
	r.cash -= notional + comm
	r.pos.Quantity, r.pos.AvgCost = 0, 0
	r.fill(Trade{
		Time:       at,
		Side:       Buy,
		Quantity:   qty,
		Price:      r.last,
		Commission: comm,
		Prior:      prior,
		Target:     0,
		Reason:     ReasonLiquidation,
	})
}

func (r *run) point(at time.Time) {
	mark := 0.0
	if r.hasMark {
		mark = r.last
	}
	pv := r.pos.Quantity * mark
	r.res.Equity = append(r.res.Equity, EquityPoint{
		Time:          at,
		Cash:          r.cash,
		Quantity:      r.pos.Quantity,
		Mark:          mark,
		PositionValue: pv,
		Equity:        math.Max(r.cash+pv, 0),
	})
}

// gap carries the last mark through a bar that cannot be traded.
func (r *run) gap(idx int, b market.Bar) {
	r.res.DataGaps = append(r.res.DataGaps, DataGap{Time: b.Time, Index: idx, Reason: GapInvalidBar})
	r.log.Warn().Time("time", b.Time).Int("index", idx).Str("reason", GapInvalidBar).Msg("data gap")
	r.point(b.Time)
}

func (r *run) finish() *Result {
	res := r.res
	res.TerminalEquity = r.cash
	if n := len(res.Equity); n > 0 {
		res.TerminalEquity = res.Equity[n-1].Equity
	}

	res.Final = PortfolioState{
		Cash:      r.cash,
		Positions: map[string]Position{},
		Equity:    res.Equity,
	}
	if r.pos.Quantity != 0 {
		res.Final.Positions[r.pos.Asset] = r.pos
	}
	res.Metrics = ComputeMetrics(res, r.cfg.RiskFreeRate, r.cfg.PeriodsPerYear)

	r.log.Info().
		Float64("terminal_equity", res.TerminalEquity).
		Int("trades", len(res.Trades)).
		Bool("halted", res.Halted).
		Int("gaps", len(res.DataGaps)).
		Msg("run complete")
	return res
}
