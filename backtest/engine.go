// Package backtest simulates a single-asset portfolio driven by a validated
// strategy. Signals observed at a bar's close fill at the next bar's open,
// and the portfolio is marked at every close.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/journal"
	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/metrics"
	"github.com/rustyeddy/quantlab/pkg/id"
	"github.com/rustyeddy/quantlab/safety"
	"github.com/rustyeddy/quantlab/sentiment"
)

// epsilon is the smallest quantity or cash amount treated as non-zero.
const epsilon = 1e-9

// Engine holds immutable run parameters. It is safe to call Run
// concurrently; each call builds its own portfolio.
type Engine struct {
	cfg     config.Simulation
	sizer   sentiment.Sizer
	log     zerolog.Logger
	journal journal.Journal
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithJournal records every trade and equity point after each run.
func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithSizer sets how sentiment scores scale exposure.
func WithSizer(z sentiment.Sizer) Option {
	return func(e *Engine) { e.sizer = z }
}

// New validates cfg and returns an Engine.
func New(cfg config.Simulation, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	if cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("backtest: simulation.initial_cash must be positive: %w", config.ErrInvalid)
	}

	e := &Engine{
		cfg:   cfg,
		sizer: sentiment.DefaultSizer(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run simulates strat over bars. sentiment, when not nil, holds one score
// per bar; the score at a bar's close scales the order placed at the next
// open. A nil series leaves exposure unscaled.
func (e *Engine) Run(ctx context.Context, bars market.BarSet, strat *safety.Approved, sentiment []float64) (*Result, error) {
	if strat == nil {
		return nil, errors.New("backtest: approved strategy is required")
	}
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	if sentiment != nil && len(sentiment) != len(bars.Bars) {
		return nil, fmt.Errorf("backtest: %d sentiment values for %d bars", len(sentiment), len(bars.Bars))
	}

	strat.Reset()
	r := &run{
		cfg:  e.cfg,
		log:  e.log,
		cash: e.cfg.InitialCash,
		pos:  Position{Asset: bars.Asset},
		res: &Result{
			RunID:       id.New(),
			Asset:       bars.Asset,
			Strategy:    strat.Name(),
			InitialCash: e.cfg.InitialCash,
		},
	}
	r.log = e.log.With().Str("run_id", r.res.RunID).Str("asset", bars.Asset).Logger()
	r.log.Info().
		Str("strategy", strat.Name()).
		Int("bars", len(bars.Bars)).
		Str("mode", e.cfg.SignalMode).
		Msg("run start")

	var (
		seen       = make([]market.Bar, 0, len(bars.Bars))
		pending    bool
		signal     float64
		score      float64
		signalTime time.Time
		stance     float64
	)

	for t, b := range bars.Bars {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest: %w", err)
		}

		if !b.Tradable() {
			r.gap(t, b)
			continue
		}

		// Target and delta are recomputed at every tradable open from the last
		// close's signal.
		if pending {
			r.rebalance(b, e.exposure(signal, &stance, score, sentiment != nil), signalTime)
			pending = false
		}

		r.mark(b.Close)
		if r.insolvent() {
			r.liquidate(b)
			break
		}
		r.point(b.Time)

		seen = append(seen, b)
		signal = strat.Signal(seen)
		signalTime = b.Time
		if sentiment != nil {
			score = sentiment[t]
		}
		pending = true
	}

	res := r.finish()
	if err := e.record(res); err != nil {
		return res, err
	}
	return res, nil
}

// exposure turns a raw signal into the fraction of the sizing base to hold.
func (e *Engine) exposure(sig float64, stance *float64, score float64, scaled bool) float64 {
	if math.IsNaN(sig) || math.IsInf(sig, 0) || math.Abs(sig) < e.cfg.SignalDeadband {
		sig = 0
	}
	if e.cfg.SignalMode == config.SignalLatch {
		switch {
		case sig > 0:
			*stance = sig
		case sig < 0:
			*stance = 0
		}
		sig = *stance
	}
	if scaled {
		sig *= e.sizer.Weight(score)
	}
	return sig
}

func (e *Engine) record(res *Result) error {
	outcome := "completed"
	if res.Halted {
		outcome = "halted"
		metrics.HaltsTotal.WithLabelValues(res.HaltReason).Inc()
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	for _, tr := range res.Trades {
		metrics.TradesTotal.WithLabelValues(tr.Asset, string(tr.Side)).Inc()
	}
	for _, c := range res.Clamps {
		metrics.ClampsTotal.WithLabelValues(c.Reason).Inc()
	}

	if e.journal == nil {
		return nil
	}
	for _, tr := range res.Trades {
		if err := e.journal.RecordTrade(TradeRecord(res.RunID, tr)); err != nil {
			return fmt.Errorf("backtest: record trade %s: %w", tr.ID, err)
		}
	}
	for _, p := range res.Equity {
		if err := e.journal.RecordEquity(EquityRecord(res.RunID, p)); err != nil {
			return fmt.Errorf("backtest: record equity: %w", err)
		}
	}
	return nil
}

// TradeRecord converts a trade to its journal row.
func TradeRecord(runID string, t Trade) journal.TradeRecord {
	return journal.TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Asset:      t.Asset,
		Side:       string(t.Side),
		Quantity:   t.Quantity,
		Price:      t.Price,
		Commission: t.Commission,
		Slippage:   t.Slippage,
		SignalTime: t.SignalTime,
		Time:       t.Time,
		Reason:     t.Reason,
	}
}

// EquityRecord converts an equity point to its journal row.
func EquityRecord(runID string, p EquityPoint) journal.EquitySnapshot {
	return journal.EquitySnapshot{
		RunID:         runID,
		Time:          p.Time,
		Cash:          p.Cash,
		PositionValue: p.PositionValue,
		Equity:        p.Equity,
	}
}
