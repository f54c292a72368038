package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantlab/backtest"
	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/safety"
	"github.com/rustyeddy/quantlab/sentiment"
	"github.com/rustyeddy/quantlab/strategies"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Backtest several presets and half-lives in parallel",
	Long: `Sweep runs every combination of --strategies and --half-lives over the
same bars and prints one line per run.

Example:
  quantlab sweep --bars data/spy.csv --strategies ma-trend,ema-cross --news data/news.csv --half-lives 24h,120h`,
	RunE: runSweep,
}

var (
	sweepConfigPath string
	sweepBarsPath   string
	sweepAsset      string
	sweepNewsPath   string
	sweepStrategies []string
	sweepHalfLives  []string
	sweepWorkers    int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	sweepCmd.Flags().StringVarP(&sweepBarsPath, "bars", "b", "", "path to bars CSV (required)")
	sweepCmd.Flags().StringVarP(&sweepAsset, "asset", "a", "", "asset symbol (default: bars file name)")
	sweepCmd.Flags().StringVar(&sweepNewsPath, "news", "", "news CSV used with --half-lives")
	sweepCmd.Flags().StringSliceVar(&sweepStrategies, "strategies", nil, "presets to run (default: all)")
	sweepCmd.Flags().StringSliceVar(&sweepHalfLives, "half-lives", nil, "sentiment half-lives to compare (e.g. 24h,120h)")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", 4, "parallel runs")

	sweepCmd.MarkFlagRequired("bars")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(sweepConfigPath)
	if err != nil {
		return err
	}
	bars, err := loadBars(sweepBarsPath, sweepAsset, "", "")
	if err != nil {
		return err
	}

	var news []market.NewsEvent
	if sweepNewsPath != "" {
		if news, err = market.ReadNewsFile(sweepNewsPath); err != nil {
			return err
		}
	}
	halfLives := sweepHalfLives
	if len(halfLives) == 0 {
		halfLives = []string{cfg.Sentiment.HalfLife}
	}
	names := sweepStrategies
	if len(names) == 0 {
		names = strategies.Names()
	}

	sim := cfg.Simulation
	sim.InitialCash = cfg.StartingCash()
	v := safety.New()

	var runs []backtest.SweepRun
	for _, name := range names {
		for _, hl := range halfLives {
			sc := cfg.Sentiment
			sc.HalfLife = hl
			d, err := sc.HalfLifeDuration()
			if err != nil {
				return err
			}

			strat, err := safety.GatePreset(v, strings.TrimSpace(name), strategies.DefaultParams())
			if err != nil {
				return err
			}
			var sent []float64
			if news != nil {
				sent = sentiment.SeriesForAsset(news, bars.Asset, bars.Times(), d, sc.NoiseFloor)
			}
			runs = append(runs, backtest.SweepRun{
				Name:      fmt.Sprintf("%s/%s", name, hl),
				Config:    sim,
				Bars:      bars,
				Strategy:  strat,
				Sentiment: sent,
			})
		}
	}

	results, err := backtest.Sweep(ctx, runs, sweepWorkers,
		backtest.WithLogger(log),
		backtest.WithSizer(sentiment.SizerFromConfig(cfg.Sentiment)))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTERMINAL\tRETURN\tMAX DD\tSHARPE\tTRADES\tHALTED")
	for i, res := range results {
		m := res.Metrics
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f%%\t%.2f%%\t%.2f\t%d\t%v\n",
			runs[i].Name, res.TerminalEquity, m.TotalReturn*100, m.MaxDrawdown*100, m.Sharpe, m.Trades, res.Halted)
	}
	return tw.Flush()
}
