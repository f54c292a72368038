package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/safety"
)

// SweepRun is one configuration in a sweep. Strategies keep state, so every
// run needs its own Approved value.
type SweepRun struct {
	Name      string
	Config    config.Simulation
	Bars      market.BarSet
	Strategy  *safety.Approved
	Sentiment []float64
}

// Sweep runs independent simulations on at most workers goroutines and
// returns results in the order of runs. The first error cancels the rest.
func Sweep(ctx context.Context, runs []SweepRun, workers int, opts ...Option) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	seen := make(map[*safety.Approved]string, len(runs))
	for _, r := range runs {
		if r.Strategy == nil {
			continue
		}
		if prev, ok := seen[r.Strategy]; ok {
			return nil, fmt.Errorf("backtest: sweep runs %q and %q share a strategy instance", prev, r.Name)
		}
		seen[r.Strategy] = r.Name
	}

	out := make([]*Result, len(runs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range runs {
		g.Go(func() error {
			eng, err := New(r.Config, opts...)
			if err != nil {
				return fmt.Errorf("sweep %q: %w", r.Name, err)
			}
			res, err := eng.Run(ctx, r.Bars, r.Strategy, r.Sentiment)
			if err != nil {
				return fmt.Errorf("sweep %q: %w", r.Name, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
