package ledger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"microcap-trader/internal/models"
)

// ExportSnapshots writes every snapshot row to a CSV file in the
// dashboard column layout, dates ascending, TOTAL row last per date.
func ExportSnapshots(ctx context.Context, l Ledger, path string) error {
	curve, err := l.EquityCurve(ctx)
	if err != nil {
		return fmt.Errorf("listing snapshot dates: %w", err)
	}

	var all []models.Snapshot
	for _, point := range curve {
		rows, err := l.Snapshots(ctx, point.Date)
		if err != nil {
			return fmt.Errorf("reading snapshots for %s: %w", point.Date.Format(models.DateFormat), err)
		}
		all = append(all, rows...)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&all, f); err != nil {
		return fmt.Errorf("writing snapshot CSV: %w", err)
	}
	return nil
}

// tradeCSV is the flat CSV shape of a trade log row.
type tradeCSV struct {
	Date       string  `csv:"date"`
	Ticker     string  `csv:"ticker"`
	Action     string  `csv:"action"`
	Shares     float64 `csv:"shares"`
	Price      float64 `csv:"price"`
	CostBasis  float64 `csv:"cost_basis"`
	PnL        float64 `csv:"pnl"`
	Reason     string  `csv:"reason"`
	Source     string  `csv:"source"`
	Provider   string  `csv:"provider"`
	Confidence float64 `csv:"confidence"`
}

// ExportTrades writes the full trade log to a CSV file, oldest first.
func ExportTrades(ctx context.Context, l Ledger, path string) error {
	trades, err := l.Trades(ctx)
	if err != nil {
		return fmt.Errorf("reading trade log: %w", err)
	}

	rows := make([]tradeCSV, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, tradeCSV{
			Date:       t.Date.Format(models.DateFormat),
			Ticker:     t.Ticker,
			Action:     string(t.Action),
			Shares:     t.Shares,
			Price:      t.Price,
			CostBasis:  t.CostBasis,
			PnL:        t.PnL,
			Reason:     t.Reason,
			Source:     string(t.Source),
			Provider:   t.Provider,
			Confidence: t.Confidence,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing trade CSV: %w", err)
	}
	return nil
}

// ImportSnapshots loads snapshot rows from a CSV file (the same layout
// ExportSnapshots produces) and writes them into the ledger date by
// date, replacing any existing rows for those dates. Used to migrate a
// spreadsheet-kept history into the database.
func ImportSnapshots(ctx context.Context, l Ledger, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	var rows []models.Snapshot
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return 0, fmt.Errorf("parsing snapshot CSV: %w", err)
	}

	byDate := make(map[string][]models.Snapshot)
	var order []string
	for _, row := range rows {
		date, err := time.Parse(models.DateFormat, row.Day)
		if err != nil {
			return 0, fmt.Errorf("row for %s has unparseable date %q: %w", row.Ticker, row.Day, err)
		}
		row.Date = date
		if _, seen := byDate[row.Day]; !seen {
			order = append(order, row.Day)
		}
		byDate[row.Day] = append(byDate[row.Day], row)
	}

	for _, day := range order {
		date, _ := time.Parse(models.DateFormat, day)
		if err := l.SaveDay(ctx, date, byDate[day]); err != nil {
			return 0, fmt.Errorf("importing rows for %s: %w", day, err)
		}
	}
	return len(rows), nil
}
