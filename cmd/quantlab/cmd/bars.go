package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var barsCmd = &cobra.Command{
	Use:   "bars <file>",
	Short: "Report calendar gaps and invalid rows in a bars CSV",
	Long: `Bars loads a bars CSV and prints its span, gap classification and the
number of rows the engine will treat as data gaps.

Example:
  quantlab bars data/spy.csv --asset SPY`,
	Args: cobra.ExactArgs(1),
	RunE: runBars,
}

var barsAsset string

func init() {
	rootCmd.AddCommand(barsCmd)
	barsCmd.Flags().StringVarP(&barsAsset, "asset", "a", "", "asset symbol (default: file name)")
}

func runBars(cmd *cobra.Command, args []string) error {
	bars, err := loadBars(args[0], barsAsset, "", "")
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Asset:   %s\n", bars.Asset)
	fmt.Fprintf(w, "Bars:    %d\n", bars.Len())
	fmt.Fprintf(w, "From:    %s\n", bars.Bars[0].Time.Format(time.RFC3339))
	fmt.Fprintf(w, "To:      %s\n", bars.Bars[bars.Len()-1].Time.Format(time.RFC3339))
	fmt.Fprintf(w, "Step:    %s\n", bars.Step())

	invalid := 0
	for _, b := range bars.Bars {
		if !b.Tradable() {
			invalid++
		}
	}
	fmt.Fprintf(w, "Invalid: %d\n\n", invalid)
	bars.PrintStats(w)
	return nil
}
