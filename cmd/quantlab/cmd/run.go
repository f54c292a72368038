package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quantlab/backtest"
	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/journal"
	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/risk"
	"github.com/rustyeddy/quantlab/safety"
	"github.com/rustyeddy/quantlab/sentiment"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backtest a strategy over a bars CSV",
	Long: `Run validates a strategy, simulates it over daily bars and prints a summary.

Signals seen at a bar's close fill at the next bar's open. With --news, the
decayed sentiment score at each close scales the next order.

Examples:
  quantlab run --bars data/spy.csv --asset SPY --strategy ma-trend --window 50
  quantlab run --bars data/spy.csv --source my_strategy.py --signals my_signals.csv
  quantlab run --bars data/spy.csv --strategy ema-cross --news data/news.csv --risk --db quantlab.sqlite`,
	RunE: runRun,
}

var (
	runConfigPath string
	runBarsPath   string
	runAsset      string
	runNewsPath   string
	runDBPath     string
	runOrgPath    string
	runStart      string
	runEnd        string
	runRisk       bool
	runStrategy   strategySpec
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVarP(&runBarsPath, "bars", "b", "", "path to bars CSV (time,open,high,low,close[,volume]) (required)")
	runCmd.Flags().StringVarP(&runAsset, "asset", "a", "", "asset symbol (default: bars file name)")
	runCmd.Flags().StringVar(&runNewsPath, "news", "", "news CSV (time,asset,relevance,sentiment) to scale exposure")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "SQLite journal path (overrides config journal)")
	runCmd.Flags().StringVar(&runOrgPath, "org", "", "write an Org-mode report to this path")
	runCmd.Flags().StringVar(&runStart, "start", "", "first bar time to include")
	runCmd.Flags().StringVar(&runEnd, "end", "", "last bar time to include")
	runCmd.Flags().BoolVar(&runRisk, "risk", false, "run the Monte Carlo simulator on the result")
	runStrategy.flags(runCmd.Flags())

	runCmd.MarkFlagRequired("bars")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	if runDBPath != "" {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: runDBPath}
	}

	bars, err := loadBars(runBarsPath, runAsset, runStart, runEnd)
	if err != nil {
		return err
	}

	j, store, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	strat, err := runStrategy.approve(ctx, safety.New(), store)
	if err != nil {
		return err
	}

	sent, err := sentimentFor(runNewsPath, cfg.Sentiment, bars)
	if err != nil {
		return err
	}

	sim := cfg.Simulation
	sim.InitialCash = cfg.StartingCash()
	opts := []backtest.Option{
		backtest.WithLogger(log),
		backtest.WithSizer(sentiment.SizerFromConfig(cfg.Sentiment)),
	}
	if j != nil {
		opts = append(opts, backtest.WithJournal(j))
	}
	eng, err := backtest.New(sim, opts...)
	if err != nil {
		return err
	}

	res, err := eng.Run(ctx, bars, strat, sent)
	if err != nil {
		return err
	}
	backtest.PrintResult(cmd.OutOrStdout(), res)

	var dist *risk.Distribution
	if runRisk {
		dist, err = simulate(ctx, res.Returns(), cfg.Risk, res.InitialCash)
		if err != nil {
			return err
		}
		printDistribution(cmd, dist, cfg.Risk)
	}

	rec := runRecord(res, dist, sim, runBarsPath)
	rec.OrgPath = runOrgPath
	if store != nil {
		if err := store.RecordRun(ctx, rec); err != nil {
			return err
		}
		log.Info().Str("run_id", res.RunID).Str("db", cfg.Journal.DBPath).Msg("run recorded")
	}
	if runOrgPath != "" {
		if err := rec.WriteOrg(); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Org Report:    %s\n", runOrgPath)
	}
	return nil
}

func loadBars(path, asset, start, end string) (market.BarSet, error) {
	if asset == "" {
		base := filepath.Base(path)
		asset = base[:len(base)-len(filepath.Ext(base))]
	}
	bars, err := market.ReadBarsFile(path, asset)
	if err != nil {
		return market.BarSet{}, err
	}

	var from, to time.Time
	if start != "" {
		if from, err = market.ParseTime(start); err != nil {
			return market.BarSet{}, fmt.Errorf("--start: %w", err)
		}
	}
	if end != "" {
		if to, err = market.ParseTime(end); err != nil {
			return market.BarSet{}, fmt.Errorf("--end: %w", err)
		}
	}
	if !from.IsZero() || !to.IsZero() {
		bars = bars.Between(from, to)
	}
	if err := bars.Validate(); err != nil {
		return market.BarSet{}, err
	}

	if gaps := bars.Gaps(); len(gaps) > 0 {
		log.Debug().Int("gaps", len(gaps)).Str("asset", asset).Msg("calendar gaps in bars")
	}
	return bars, nil
}

// runRecord flattens a result into its journal row.
func runRecord(res *backtest.Result, dist *risk.Distribution, sim config.Simulation, dataset string) journal.RunRecord {
	m := res.Metrics
	rec := journal.RunRecord{
		RunID:          res.RunID,
		Created:        time.Now(),
		Dataset:        dataset,
		Strategy:       res.Strategy,
		Asset:          res.Asset,
		Bars:           len(res.Equity),
		InitialCash:    res.InitialCash,
		TerminalEquity: res.TerminalEquity,
		TotalReturn:    m.TotalReturn,
		CAGR:           m.CAGR,
		MaxDrawdown:    m.MaxDrawdown,
		Sharpe:         m.Sharpe,
		Trades:         m.Trades,
		RoundTrips:     m.RoundTrips,
		Wins:           m.Wins,
		Losses:         m.Losses,
		WinRate:        m.WinRate,
		ProfitFactor:   m.ProfitFactor,
		Halted:         res.Halted,
		HaltReason:     res.HaltReason,
	}
	if n := len(res.Equity); n > 0 {
		rec.Start = res.Equity[0].Time
		rec.End = res.Equity[n-1].Time
	}
	if data, err := yaml.Marshal(sim); err == nil {
		rec.Config = data
	}
	if len(res.Clamps) > 0 {
		rec.Notes = append(rec.Notes, fmt.Sprintf("%d orders clamped for insufficient funds", len(res.Clamps)))
	}
	if len(res.DataGaps) > 0 {
		rec.Notes = append(rec.Notes, fmt.Sprintf("%d invalid bars skipped", len(res.DataGaps)))
	}
	if dist != nil {
		rec.Risk = &journal.RiskSummary{
			Trials:            dist.Trials,
			VaRPercentile:     dist.VaRPercentile,
			VaR:               dist.VaR,
			P5:                dist.P5,
			P50:               dist.P50,
			P95:               dist.P95,
			MedianMaxDrawdown: dist.MedianMaxDrawdown,
		}
	}
	return rec
}
