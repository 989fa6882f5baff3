package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"microcap-trader/internal/models"
	"microcap-trader/internal/trading"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show performance metrics and benchmark comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			report, err := trading.BuildReport(cmd.Context(), app.Ledger, app.gateway(cmd),
				app.Config.Metrics.Benchmarks, app.metricsConfig(), app.Logger)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(report)
			}

			if len(report.Curve) == 0 {
				out.Info("Ledger is empty; run 'trader cycle' first.")
				return nil
			}

			m := report.Metrics
			out.Bold("Performance (%d days)", m.Days)
			out.Printf("  starting equity: $%.2f\n", m.StartingEquity)
			out.Printf("  current equity:  $%.2f\n", m.CurrentEquity)
			out.Printf("  total return:    %s%%\n", out.Signed(m.TotalReturn*100))
			out.Printf("  sharpe:          %.2f\n", m.Sharpe)
			out.Printf("  sortino:         %.2f\n", m.Sortino)
			out.Printf("  max drawdown:    %.2f%%\n", m.MaxDrawdown*100)

			if len(report.Benchmarks) > 0 {
				out.Println()
				out.Bold("Benchmarks (rebased to $%.2f)", m.StartingEquity)
				headers := []string{"Index", "Final", "Return"}
				var rows [][]string
				for _, b := range report.Benchmarks {
					rows = append(rows, []string{
						b.Ticker,
						fmt.Sprintf("%.2f", b.FinalValue),
						fmt.Sprintf("%+.2f%%", b.TotalReturn*100),
					})
				}
				out.Table(headers, rows)
			}

			showTrades, _ := cmd.Flags().GetBool("trades")
			if showTrades && len(report.Trades) > 0 {
				out.Println()
				out.Bold("Trade log")
				headers := []string{"Date", "Ticker", "Action", "Shares", "Price", "PnL", "Source"}
				var rows [][]string
				for _, t := range report.Trades {
					rows = append(rows, []string{
						t.Date.Format(models.DateFormat),
						t.Ticker,
						string(t.Action),
						fmt.Sprintf("%g", t.Shares),
						fmt.Sprintf("%.2f", t.Price),
						fmt.Sprintf("%+.2f", t.PnL),
						string(t.Source),
					})
				}
				out.Table(headers, rows)
			}

			return nil
		},
	}

	cmd.Flags().Bool("trades", false, "Include the full trade log")
	return cmd
}
