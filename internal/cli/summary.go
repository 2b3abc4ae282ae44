package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/tradekit/backtest/backtest"
	"github.com/tradekit/backtest/journal"
)

// PrintRunSummary writes a plain-text report of a completed run.
func PrintRunSummary(w io.Writer, run journal.RunRecord, res backtest.Result) {
	m := res.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:         %s\n", run.RunID)
	fmt.Fprintf(w, "Strategy:       %s\n", run.Strategy)
	fmt.Fprintf(w, "Symbol:         %s\n", run.Symbol)

	if n := len(res.AccountHistory); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:          %s\n", res.AccountHistory[0].Timestamp.Format(time.RFC3339))
		fmt.Fprintf(w, "End:            %s\n", res.AccountHistory[n-1].Timestamp.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial Cash:   %.2f\n", run.InitialCash)
	fmt.Fprintf(w, "Final Equity:   %.2f\n", res.FinalEquity())
	fmt.Fprintf(w, "Total Return:   %.2f%%\n", m.TotalReturn)
	fmt.Fprintf(w, "Annual Return:  %.2f%%\n", m.AnnualReturn)
	fmt.Fprintf(w, "Volatility:     %.2f%%\n", m.Volatility)
	fmt.Fprintf(w, "Sharpe Ratio:   %.2f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Sortino Ratio:  %.2f\n", m.SortinoRatio)
	fmt.Fprintf(w, "Max Drawdown:   %.2f%%\n", m.MaxDrawdown)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Orders:         %d\n", len(res.Orders))
	fmt.Fprintf(w, "Trades:         %d\n", len(res.Trades))
	fmt.Fprintf(w, "Signals:        %d\n", len(res.Signals))

	fmt.Fprintln(w)
}
