package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"microcap-trader/internal/ledger"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export or import the ledger as CSV",
	}

	cmd.AddCommand(newExportSnapshotsCmd(app), newExportTradesCmd(app), newImportCmd(app))
	return cmd
}

func newExportSnapshotsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Write all daily snapshot rows to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				path = filepath.Join(app.Config.Trading.DataDir, "portfolio_update.csv")
			}
			if err := ledger.ExportSnapshots(cmd.Context(), app.Ledger, path); err != nil {
				return err
			}
			out.Success("Snapshots exported to %s", path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Destination file (default <data dir>/portfolio_update.csv)")
	return cmd
}

func newExportTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Write the trade log to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				path = filepath.Join(app.Config.Trading.DataDir, "trade_log.csv")
			}
			if err := ledger.ExportTrades(cmd.Context(), app.Ledger, path); err != nil {
				return err
			}
			out.Success("Trade log exported to %s", path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Destination file (default <data dir>/trade_log.csv)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import snapshot rows from a CSV file",
		Long: `Import a snapshot history kept in a spreadsheet. Rows are grouped
by date and each date's rows replace any existing rows for that date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			count, err := ledger.ImportSnapshots(cmd.Context(), app.Ledger, args[0])
			if err != nil {
				return err
			}
			out.Success("Imported %d rows from %s", count, args[0])
			return nil
		},
	}
}
