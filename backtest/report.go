package backtest

import (
	"fmt"
	"io"
	"time"
)

// PrintResult writes a plain-text summary of res to w.
func PrintResult(w io.Writer, res *Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", res.RunID)
	fmt.Fprintf(w, "Strategy:      %s\n", res.Strategy)
	fmt.Fprintf(w, "Asset:         %s\n", res.Asset)

	if n := len(res.Equity); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:         %s\n", res.Equity[0].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", res.Equity[n-1].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "Bars:          %d\n", n)
	}

	m := res.Metrics
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", m.Trades)
	fmt.Fprintf(w, "Round Trips:   %d\n", m.RoundTrips)
	fmt.Fprintf(w, "Wins:          %d\n", m.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", m.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate*100)
	if m.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", m.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", res.InitialCash)
	fmt.Fprintf(w, "End Equity:    %.2f\n", res.TerminalEquity)
	fmt.Fprintf(w, "Return:        %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(w, "CAGR:          %.2f%%\n", m.CAGR*100)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", m.Sharpe)
	fmt.Fprintf(w, "Avg Exposure:  %.2f%%\n", m.AvgExposure*100)

	if res.Halted || len(res.Clamps) > 0 || len(res.DataGaps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		if res.Halted {
			fmt.Fprintf(w, "- halted: %s\n", res.HaltReason)
		}
		if n := len(res.Clamps); n > 0 {
			fmt.Fprintf(w, "- %d orders clamped\n", n)
		}
		if n := len(res.DataGaps); n > 0 {
			fmt.Fprintf(w, "- %d bars skipped as data gaps\n", n)
		}
	}
	fmt.Fprintln(w)
}
