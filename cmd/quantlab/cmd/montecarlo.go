package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/journal"
	"github.com/rustyeddy/quantlab/risk"
)

var montecarloCmd = &cobra.Command{
	Use:     "montecarlo <run-id>",
	Aliases: []string{"mc"},
	Short:   "Bootstrap the returns of a recorded run",
	Long: `Montecarlo resamples the period returns of a run stored in the SQLite
journal and reports percentiles of terminal equity, VaR and median drawdown.

Example:
  quantlab montecarlo 01HV3K... --db quantlab.sqlite --trials 5000 --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: runMontecarlo,
}

var (
	mcDBPath     string
	mcConfigPath string
	mcTrials     int
	mcSeed       int64
	mcWorkers    int
	mcVaR        float64
)

func init() {
	rootCmd.AddCommand(montecarloCmd)

	d := config.DefaultRisk()
	montecarloCmd.Flags().StringVarP(&mcDBPath, "db", "d", "./quantlab.sqlite", "path to SQLite journal DB")
	montecarloCmd.Flags().StringVarP(&mcConfigPath, "config", "f", "", "path to config file (risk section)")
	montecarloCmd.Flags().IntVar(&mcTrials, "trials", 0, fmt.Sprintf("number of trials (default %d)", d.Trials))
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (default from config)")
	montecarloCmd.Flags().IntVar(&mcWorkers, "workers", 0, "parallel workers (default GOMAXPROCS)")
	montecarloCmd.Flags().Float64Var(&mcVaR, "var", 0, "VaR percentile (default from config)")
}

func runMontecarlo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(mcConfigPath)
	if err != nil {
		return err
	}
	rc := cfg.Risk
	if mcTrials > 0 {
		rc.Trials = mcTrials
	}
	if cmd.Flags().Changed("seed") {
		rc.Seed = mcSeed
	}
	if mcWorkers > 0 {
		rc.Workers = mcWorkers
	}
	if mcVaR > 0 {
		rc.VaRPercentile = mcVaR
	}

	j, err := journal.NewSQLite(mcDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runID := args[0]
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	curve, err := j.ListEquityByRunID(ctx, runID)
	if err != nil {
		return err
	}

	dist, err := simulate(ctx, equityReturns(curve), rc, run.InitialCash)
	if err != nil {
		return err
	}
	printDistribution(cmd, dist, rc)

	run.Risk = &journal.RiskSummary{
		Trials:            dist.Trials,
		VaRPercentile:     dist.VaRPercentile,
		VaR:               dist.VaR,
		P5:                dist.P5,
		P50:               dist.P50,
		P95:               dist.P95,
		MedianMaxDrawdown: dist.MedianMaxDrawdown,
	}
	return j.RecordRun(ctx, run)
}

func equityReturns(curve []journal.EquitySnapshot) []float64 {
	var out []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

func simulate(ctx context.Context, returns []float64, rc config.RiskConfig, start float64) (*risk.Distribution, error) {
	log.Info().Int("trials", rc.Trials).Int("returns", len(returns)).Msg("monte carlo")
	dist, err := risk.Simulate(ctx, returns, risk.OptionsFromConfig(rc, start))
	if err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}
	return dist, nil
}

func printDistribution(cmd *cobra.Command, d *risk.Distribution, rc config.RiskConfig) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Monte Carlo")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trials:        %d\n", d.Trials)
	if d.Degenerate {
		fmt.Fprintln(w, "Returns:       no variation, outcome is deterministic")
	}
	fmt.Fprintf(w, "P5:            %.2f\n", d.P5)
	fmt.Fprintf(w, "P50:           %.2f\n", d.P50)
	fmt.Fprintf(w, "P95:           %.2f\n", d.P95)
	fmt.Fprintf(w, "Mean:          %.2f (sd %.2f)\n", d.Mean, d.StdDev)
	fmt.Fprintf(w, "VaR (P%g):     %.2f (%.2f%%)\n", d.VaRPercentile, d.VaR, d.VaRPct()*100)
	fmt.Fprintf(w, "Median Max DD: %.2f%%\n", d.MedianMaxDrawdown*100)

	dec := risk.Evaluate(risk.PolicyFromConfig(rc), d)
	for _, v := range dec.Violations {
		fmt.Fprintf(w, "! %s: %s\n", v.Code, v.Msg)
	}
	fmt.Fprintln(w)
}
