package safety

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/metrics"
	"github.com/rustyeddy/quantlab/strategies"
)

// Approved is a strategy whose source passed validation. It can only be
// built by Gate, so holding one proves the check ran.
type Approved struct {
	name     string
	dialect  Dialect
	strategy strategies.Strategy
}

func (a *Approved) Name() string     { return a.name }
func (a *Approved) Dialect() Dialect { return a.dialect }

// Warmup is the number of bars the strategy needs before it signals.
func (a *Approved) Warmup() int { return a.strategy.Warmup() }

// Reset clears any incremental state kept by the strategy between runs.
func (a *Approved) Reset() {
	if r, ok := a.strategy.(strategies.Resetter); ok {
		r.Reset()
	}
}

// Signal evaluates the strategy on the bars observed so far.
func (a *Approved) Signal(prefix []market.Bar) float64 {
	return a.strategy.Signal(prefix)
}

// Gate validates name and source and wraps strat on success. On rejection it
// returns a *RejectionError and strat is never reachable.
func Gate(v *Validator, name, source string, strat strategies.Strategy) (*Approved, error) {
	if v == nil {
		return nil, errors.New("safety: Validator is required")
	}
	if strat == nil {
		return nil, errors.New("safety: strategy is required")
	}
	if err := v.ValidateName(name); err != nil {
		metrics.ValidationsTotal.WithLabelValues("rejected", "name").Inc()
		return nil, err
	}

	res := v.Validate(source)
	if !res.OK {
		metrics.ValidationsTotal.WithLabelValues("rejected", res.Rule).Inc()
		return nil, &RejectionError{
			Name:   name,
			Rule:   res.Rule,
			Reason: res.Reason,
			Line:   res.Line,
		}
	}

	metrics.ValidationsTotal.WithLabelValues("approved", "").Inc()
	return &Approved{
		name:     name,
		dialect:  res.Dialect,
		strategy: strat,
	}, nil
}

// GatePreset looks up a built-in strategy and gates it with its own source.
func GatePreset(v *Validator, name string, params strategies.Params) (*Approved, error) {
	strat, src, err := strategies.Preset(name, params)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return Gate(v, strat.Name(), src, strat)
}
