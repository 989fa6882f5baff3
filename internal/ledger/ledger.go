// Package ledger provides the persistent portfolio ledger: daily
// snapshots, the append-only trade log, and CSV export.
package ledger

import (
	"context"
	"time"

	"microcap-trader/internal/models"
)

// Ledger is the persistence boundary for the portfolio. One row per
// (date, ticker) plus a TOTAL aggregate row per date; trades are
// append-only.
type Ledger interface {
	// SaveDay replaces all snapshot rows for the given date in one
	// transaction. Re-running the same date is idempotent: the old rows
	// are deleted and the new set inserted atomically.
	SaveDay(ctx context.Context, date time.Time, rows []models.Snapshot) error

	// AppendTrade appends one executed trade to the trade log.
	AppendTrade(ctx context.Context, trade models.Trade) error

	// LoadPortfolio reconstructs the portfolio from the most recent
	// snapshot date, or returns a fresh portfolio with startingCash
	// when the ledger is empty.
	LoadPortfolio(ctx context.Context, startingCash float64) (*models.Portfolio, time.Time, error)

	// Snapshots returns all rows for one date, per-ticker rows first,
	// TOTAL last.
	Snapshots(ctx context.Context, date time.Time) ([]models.Snapshot, error)

	// EquityCurve returns the TOTAL-row equity for every date, oldest
	// first.
	EquityCurve(ctx context.Context) ([]models.EquityPoint, error)

	// Trades returns the full trade log, oldest first.
	Trades(ctx context.Context) ([]models.Trade, error)

	// LatestPrices returns the per-ticker current prices from the most
	// recent snapshot date, used to seed the market data fallback cache.
	LatestPrices(ctx context.Context) (map[string]models.Quote, error)

	// Close releases the underlying database.
	Close() error
}
