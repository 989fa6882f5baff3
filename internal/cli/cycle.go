package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"microcap-trader/internal/models"
	"microcap-trader/internal/trading"
)

func newCycleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run the daily processing cycle",
		Long: `Run one daily cycle: load the portfolio, fetch prices, enforce
stop losses, apply AI recommendations when enabled, and write the
day's snapshot. Re-running the same date replaces that date's rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			date, err := parseDateFlag(cmd)
			if err != nil {
				return err
			}

			useAI, _ := cmd.Flags().GetBool("ai")
			interactive, _ := cmd.Flags().GetBool("interactive")
			if cash, _ := cmd.Flags().GetFloat64("cash"); cash > 0 {
				app.Config.Trading.StartingCash = cash
			}
			if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
				app.Config.AI.Provider = provider
			}

			var cycle *trading.Cycle
			if useAI {
				ad, err := app.adapter()
				if err != nil {
					return err
				}
				var approver trading.Approver = trading.AutoApprover{}
				if interactive {
					approver = NewTerminalApprover(cmd, out)
				}
				cycle = app.newCycle(cmd, ad, approver)
			} else {
				cycle = app.newCycle(cmd, nil, nil)
			}

			result, err := cycle.Run(cmd.Context(), date, nil)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(result)
			}

			printCycleResult(out, result)
			return nil
		},
	}

	cmd.Flags().String("date", "", "Cycle date as YYYY-MM-DD (default today)")
	cmd.Flags().Float64("cash", 0, "Starting cash for a fresh ledger")
	cmd.Flags().Bool("ai", false, "Request AI trade recommendations")
	cmd.Flags().Bool("interactive", false, "Review each AI recommendation before execution")
	cmd.Flags().String("provider", "", "Override the AI provider (openai, ollama)")

	return cmd
}

func printCycleResult(out *Output, result *trading.CycleResult) {
	out.Bold("Cycle %s", result.Date.Format(models.DateFormat))

	for _, trade := range result.Executed {
		line := fmt.Sprintf("  %s %-5s %g @ $%.2f", trade.Action, trade.Ticker, trade.Shares, trade.Price)
		if trade.Action == models.ActionSell {
			line += "  PnL " + out.Signed(trade.PnL)
		}
		if trade.Source == models.SourceStopLoss {
			line += out.Dim("  (stop loss)")
		}
		out.Println(line)
	}
	for _, rej := range result.Rejected {
		out.Warning("  rejected %s %s: %v", rej.Intent.Action, rej.Intent.Ticker, rej.Err)
	}

	out.Println()
	printHoldings(out, result.Snapshots)
	out.Println()
	out.Printf("Total return %.2f%%  Sharpe %.2f  Sortino %.2f  Max drawdown %.2f%%\n",
		result.Metrics.TotalReturn*100, result.Metrics.Sharpe,
		result.Metrics.Sortino, result.Metrics.MaxDrawdown*100)
}

func printHoldings(out *Output, snapshots []models.Snapshot) {
	headers := []string{"Ticker", "Shares", "Basis", "Stop", "Price", "Value", "PnL", "Action"}
	var rows [][]string
	for _, s := range snapshots {
		if s.IsTotal() {
			continue
		}
		stop := "-"
		if s.StopLoss > 0 {
			stop = fmt.Sprintf("%.2f", s.StopLoss)
		}
		rows = append(rows, []string{
			s.Ticker,
			fmt.Sprintf("%g", s.Shares),
			fmt.Sprintf("%.2f", s.CostBasis),
			stop,
			fmt.Sprintf("%.2f", s.CurrentPrice),
			fmt.Sprintf("%.2f", s.TotalValue),
			fmt.Sprintf("%+.2f", s.PnL),
			string(s.Action),
		})
	}
	if len(rows) > 0 {
		out.Table(headers, rows)
	}

	for _, s := range snapshots {
		if s.IsTotal() {
			out.Printf("Cash $%.2f  Positions $%.2f  Equity $%.2f\n",
				s.CashBalance, s.TotalValue, s.TotalEquity)
		}
	}
}
