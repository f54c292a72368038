package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantlab/internal/logging"
	"github.com/rustyeddy/quantlab/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "quantlab",
	Short: "A lookahead-safe backtesting and risk research tool",
	Long: `Quantlab backtests single-asset strategies against daily bars.

It provides tools for:
  - Validating strategy source for lookahead before it can run
  - Next-open execution with commission, slippage and bankruptcy protection
  - Scaling exposure by decayed news sentiment
  - Monte Carlo bootstrapping of run returns (VaR, percentiles, drawdown)
  - Journaling runs, trades and strategies to SQLite or CSV`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var (
	logLevel    string
	logJSON     bool
	metricsAddr string

	log           = zerolog.Nop()
	metricsServer *http.Server
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON instead of console text")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func setup(cmd *cobra.Command, args []string) error {
	if logJSON {
		log = logging.New(logLevel, cmd.ErrOrStderr())
	} else {
		log = logging.Console(logLevel, cmd.ErrOrStderr())
	}
	if metricsAddr != "" {
		metricsServer = metrics.Serve(metricsAddr)
		log.Info().Str("addr", metricsAddr).Msg("serving metrics")
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return metricsServer.Shutdown(ctx)
}
