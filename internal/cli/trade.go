package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"microcap-trader/internal/models"
)

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Execute a manual trade through the daily cycle",
	}

	cmd.AddCommand(newTradeBuyCmd(app), newTradeSellCmd(app))
	return cmd
}

func newTradeBuyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy TICKER SHARES PRICE",
		Short: "Buy shares at a limit price",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManualTrade(app, cmd, args, models.ActionBuy)
		},
	}
	cmd.Flags().Float64("stop", 0, "Stop-loss level to attach (default derived from config)")
	cmd.Flags().String("date", "", "Trade date as YYYY-MM-DD (default today)")
	cmd.Flags().String("reason", "", "Free-form note recorded on the trade")
	cmd.Flags().Float64("cash", 0, "Starting cash for a fresh ledger")
	return cmd
}

func newTradeSellCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell TICKER SHARES PRICE",
		Short: "Sell shares at a limit price",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManualTrade(app, cmd, args, models.ActionSell)
		},
	}
	cmd.Flags().String("date", "", "Trade date as YYYY-MM-DD (default today)")
	cmd.Flags().String("reason", "", "Free-form note recorded on the trade")
	cmd.Flags().Float64("cash", 0, "Starting cash for a fresh ledger")
	return cmd
}

// runManualTrade routes a manual intent through the full daily cycle,
// so it is validated, stop-checked, and snapshotted exactly like any
// other trade.
func runManualTrade(app *App, cmd *cobra.Command, args []string, action models.TradeAction) error {
	out := NewOutput(cmd)

	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	shares, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid share count %q", args[1])
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid price %q", args[2])
	}

	date, err := parseDateFlag(cmd)
	if err != nil {
		return err
	}
	if cash, _ := cmd.Flags().GetFloat64("cash"); cash > 0 {
		app.Config.Trading.StartingCash = cash
	}
	reason, _ := cmd.Flags().GetString("reason")

	intent := models.TradeIntent{
		Ticker: ticker,
		Action: action,
		Shares: shares,
		Price:  price,
		Reason: reason,
		Source: models.SourceManual,
	}
	if action == models.ActionBuy {
		if stop, _ := cmd.Flags().GetFloat64("stop"); stop > 0 {
			intent.StopLoss = &stop
		}
	}

	cycle := app.newCycle(cmd, nil, nil)
	result, err := cycle.Run(cmd.Context(), date, []models.TradeIntent{intent})
	if err != nil {
		return err
	}

	if out.IsJSON() {
		return out.JSON(result)
	}

	for _, rej := range result.Rejected {
		if rej.Intent.Ticker == ticker && rej.Intent.Source == models.SourceManual {
			return fmt.Errorf("trade rejected: %w", rej.Err)
		}
	}

	printCycleResult(out, result)
	return nil
}
