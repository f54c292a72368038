package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/sentiment"
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment <news.csv>",
	Short: "Score news per asset with half-life decay",
	Long: `Sentiment streams a news CSV through the decay aggregator and prints each
asset's last event time, its score at that time and its decayed score at
--as-of (default: the latest event in the file).

Example:
  quantlab sentiment news.csv --half-life 48h --as-of 2024-03-01`,
	Args: cobra.ExactArgs(1),
	RunE: runSentiment,
}

var (
	sentimentConfig   string
	sentimentHalfLife string
	sentimentAsOf     string
)

func init() {
	rootCmd.AddCommand(sentimentCmd)
	sentimentCmd.Flags().StringVarP(&sentimentConfig, "config", "f", "", "config file (YAML or JSON)")
	sentimentCmd.Flags().StringVar(&sentimentHalfLife, "half-life", "", "override sentiment.half_life")
	sentimentCmd.Flags().StringVar(&sentimentAsOf, "as-of", "", "score time (RFC3339 or YYYY-MM-DD)")
}

func runSentiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(sentimentConfig)
	if err != nil {
		return err
	}
	if sentimentHalfLife != "" {
		cfg.Sentiment.HalfLife = sentimentHalfLife
	}

	news, err := market.ReadNewsFile(args[0])
	if err != nil {
		return err
	}
	market.SortNews(news)

	agg, err := sentiment.FromConfig(cfg.Sentiment, sentiment.WithLogger(log))
	if err != nil {
		return err
	}
	var latest time.Time
	for _, e := range news {
		if err := agg.Update(e); err != nil {
			return err
		}
		if e.Time.After(latest) {
			latest = e.Time
		}
	}

	asOf := latest
	if sentimentAsOf != "" {
		if asOf, err = market.ParseTime(sentimentAsOf); err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
	}

	assets := agg.Assets()
	sort.Strings(assets)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ASSET\tLAST EVENT\tSCORE\tSCORE @ %s\n", asOf.Format(time.DateOnly))
	for _, a := range assets {
		st := agg.State(a)
		fmt.Fprintf(tw, "%s\t%s\t%+.4f\t%+.4f\n", a, st.At.Format(time.DateTime), st.Score, agg.Score(a, asOf))
	}
	return tw.Flush()
}
