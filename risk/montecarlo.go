// Package risk estimates the spread of terminal equity by bootstrapping a
// run's period returns.
package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/metrics"
)

// Options configures Simulate.
type Options struct {
	Trials        int
	StartEquity   float64
	VaRPercentile float64 // e.g. 5 for the 5th percentile
	Seed          int64
	Workers       int // 0 means GOMAXPROCS
}

// OptionsFromConfig builds Options for a run that started with startEquity.
func OptionsFromConfig(c config.RiskConfig, startEquity float64) Options {
	return Options{
		Trials:        c.Trials,
		StartEquity:   startEquity,
		VaRPercentile: c.VaRPercentile,
		Seed:          c.Seed,
		Workers:       c.Workers,
	}
}

// Distribution summarizes simulated terminal equity.
type Distribution struct {
	Outcomes    []float64 // terminal equity per trial, ascending
	StartEquity float64
	Trials      int

	P5  float64
	P50 float64
	P95 float64

	VaRPercentile float64
	VaRLevel      float64 // terminal equity at VaRPercentile
	VaR           float64 // StartEquity - VaRLevel

	Mean   float64
	StdDev float64

	MedianMaxDrawdown float64
	TotalLosses       int  // trials that lost everything
	Degenerate        bool // returns carried no variation to resample
}

// Percentile returns the p-th percentile (0..100) of the outcomes.
func (d *Distribution) Percentile(p float64) float64 {
	return percentile(d.Outcomes, p)
}

// VaRPct is VaR as a fraction of starting equity.
func (d *Distribution) VaRPct() float64 {
	if d.StartEquity <= 0 {
		return 0
	}
	return d.VaR / d.StartEquity
}

func (o Options) validate(returns []float64) error {
	if o.Trials < 1 {
		return fmt.Errorf("risk: trials must be at least 1, got %d: %w", o.Trials, config.ErrInvalid)
	}
	if o.StartEquity <= 0 || math.IsNaN(o.StartEquity) || math.IsInf(o.StartEquity, 0) {
		return fmt.Errorf("risk: start equity must be positive: %w", config.ErrInvalid)
	}
	if o.VaRPercentile <= 0 || o.VaRPercentile >= 100 {
		return fmt.Errorf("risk: var percentile must be in (0, 100), got %g: %w", o.VaRPercentile, config.ErrInvalid)
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("risk: return %d is not finite: %w", i, config.ErrInvalid)
		}
	}
	return nil
}

// Simulate resamples returns with replacement Trials times, compounding
// each resample from StartEquity. Trial i draws from its own source seeded
// with Seed+i, so results do not depend on Workers.
func Simulate(ctx context.Context, returns []float64, opts Options) (*Distribution, error) {
	if err := opts.validate(returns); err != nil {
		return nil, err
	}

	outcomes := make([]float64, opts.Trials)
	drawdowns := make([]float64, opts.Trials)
	wiped := make([]bool, opts.Trials)

	degenerate := isDegenerate(returns)
	if degenerate {
		v, dd, c := path(opts.StartEquity, len(returns), func(i int) float64 { return returns[i] })
		for i := range outcomes {
			outcomes[i], drawdowns[i], wiped[i] = v, dd, c
		}
	} else {
		if err := runTrials(ctx, returns, opts, outcomes, drawdowns, wiped); err != nil {
			return nil, err
		}
	}
	metrics.TrialsTotal.Add(float64(opts.Trials))

	sort.Float64s(outcomes)
	d := &Distribution{
		Outcomes:          outcomes,
		StartEquity:       opts.StartEquity,
		Trials:            opts.Trials,
		P5:                percentile(outcomes, 5),
		P50:               percentile(outcomes, 50),
		P95:               percentile(outcomes, 95),
		VaRPercentile:     opts.VaRPercentile,
		VaRLevel:          percentile(outcomes, opts.VaRPercentile),
		MedianMaxDrawdown: median(drawdowns),
		Degenerate:        degenerate,
	}
	d.VaR = d.StartEquity - d.VaRLevel
	d.Mean, d.StdDev = meanStd(outcomes)
	for _, w := range wiped {
		if w {
			d.TotalLosses++
		}
	}
	return d, nil
}

func runTrials(ctx context.Context, returns []float64, opts Options, outcomes, drawdowns []float64, wiped []bool) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > opts.Trials {
		workers = opts.Trials
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (opts.Trials + workers - 1) / workers
	for lo := 0; lo < opts.Trials; lo += chunk {
		hi := min(lo+chunk, opts.Trials)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("risk: %w", err)
				}
				rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
				n := len(returns)
				outcomes[i], drawdowns[i], wiped[i] = path(opts.StartEquity, n, func(int) float64 {
					return returns[rng.Intn(n)]
				})
			}
			return nil
		})
	}
	return g.Wait()
}

// isDegenerate reports whether resampling cannot vary the outcome.
func isDegenerate(returns []float64) bool {
	if len(returns) < 2 {
		return true
	}
	for _, r := range returns {
		if r != 0 {
			return false
		}
	}
	return true
}
