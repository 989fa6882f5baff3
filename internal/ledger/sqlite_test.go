package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "trader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func day(s string) time.Time {
	d, _ := time.Parse(models.DateFormat, s)
	return d
}

func snapshotDay(date string, cash float64, positions ...models.Snapshot) []models.Snapshot {
	var totalValue, totalPnL float64
	rows := make([]models.Snapshot, 0, len(positions)+1)
	for _, pos := range positions {
		pos.Date = day(date)
		pos.Day = date
		rows = append(rows, pos)
		totalValue += pos.TotalValue
		totalPnL += pos.PnL
	}
	rows = append(rows, models.Snapshot{
		Date:        day(date),
		Day:         date,
		Ticker:      models.TotalTicker,
		TotalValue:  totalValue,
		PnL:         totalPnL,
		CashBalance: cash,
		TotalEquity: totalValue + cash,
	})
	return rows
}

func TestSaveDayAndLoadPortfolioRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rows := snapshotDay("2025-07-01", 42.50, models.Snapshot{
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75, StopLoss: 4.89,
		CurrentPrice: 5.80, TotalValue: 58.00, PnL: 0.50, Action: models.SnapshotBuy,
	})
	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), rows))

	pf, lastDate, err := l.LoadPortfolio(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, day("2025-07-01"), lastDate)
	assert.Equal(t, 42.50, pf.Cash)

	pos, held := pf.Position("ABEO")
	require.True(t, held)
	assert.Equal(t, 10.0, pos.Shares)
	assert.Equal(t, 5.75, pos.CostBasis)
	require.NotNil(t, pos.StopLoss)
	assert.Equal(t, 4.89, *pos.StopLoss)
}

func TestLoadPortfolioEmptyLedgerUsesStartingCash(t *testing.T) {
	l := newTestLedger(t)

	pf, lastDate, err := l.LoadPortfolio(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, lastDate.IsZero())
	assert.Equal(t, 100.0, pf.Cash)
	assert.Empty(t, pf.Positions)
}

func TestSaveDayIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	date := day("2025-07-01")

	first := snapshotDay("2025-07-01", 42.50, models.Snapshot{
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75,
		CurrentPrice: 5.80, TotalValue: 58.00, PnL: 0.50, Action: models.SnapshotBuy,
	})
	require.NoError(t, l.SaveDay(ctx, date, first))

	// Re-running the day with different numbers replaces, not appends.
	second := snapshotDay("2025-07-01", 42.50, models.Snapshot{
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75,
		CurrentPrice: 6.00, TotalValue: 60.00, PnL: 2.50, Action: models.SnapshotHold,
	})
	require.NoError(t, l.SaveDay(ctx, date, second))

	rows, err := l.Snapshots(ctx, date)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 6.00, rows[0].CurrentPrice)

	curve, err := l.EquityCurve(ctx)
	require.NoError(t, err)
	require.Len(t, curve, 1)
}

func TestSnapshotsOrderTotalLast(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rows := snapshotDay("2025-07-01", 10,
		models.Snapshot{Ticker: "IINN", Shares: 20, CostBasis: 2.50, CurrentPrice: 2.60, TotalValue: 52, PnL: 2, Action: models.SnapshotHold},
		models.Snapshot{Ticker: "ABEO", Shares: 10, CostBasis: 5.75, CurrentPrice: 5.80, TotalValue: 58, PnL: 0.5, Action: models.SnapshotHold},
	)
	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), rows))

	got, err := l.Snapshots(ctx, day("2025-07-01"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ABEO", got[0].Ticker)
	assert.Equal(t, "IINN", got[1].Ticker)
	assert.True(t, got[2].IsTotal())
}

func TestLoadPortfolioMissingTotalRowIsCorrupt(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rows := []models.Snapshot{{
		Date: day("2025-07-01"), Day: "2025-07-01",
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75,
		CurrentPrice: 5.80, TotalValue: 58, PnL: 0.5, Action: models.SnapshotHold,
	}}
	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), rows))

	_, _, err := l.LoadPortfolio(ctx, 100)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCorruptState))
}

func TestLoadPortfolioNegativeCashIsCorrupt(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rows := snapshotDay("2025-07-01", -5)
	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), rows))

	_, _, err := l.LoadPortfolio(ctx, 100)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCorruptState))
}

func TestLoadPortfolioUsesLatestDate(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), snapshotDay("2025-07-01", 100)))
	require.NoError(t, l.SaveDay(ctx, day("2025-07-02"), snapshotDay("2025-07-02", 80, models.Snapshot{
		Ticker: "ABEO", Shares: 4, CostBasis: 5.00, CurrentPrice: 5.00, TotalValue: 20, Action: models.SnapshotBuy,
	})))

	pf, lastDate, err := l.LoadPortfolio(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, day("2025-07-02"), lastDate)
	assert.Equal(t, 80.0, pf.Cash)
	assert.Len(t, pf.Positions, 1)
}

func TestEquityCurveOrdering(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// Insert out of order; the curve must come back sorted by date.
	require.NoError(t, l.SaveDay(ctx, day("2025-07-03"), snapshotDay("2025-07-03", 110)))
	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), snapshotDay("2025-07-01", 100)))
	require.NoError(t, l.SaveDay(ctx, day("2025-07-02"), snapshotDay("2025-07-02", 105)))

	curve, err := l.EquityCurve(ctx)
	require.NoError(t, err)
	require.Len(t, curve, 3)
	assert.Equal(t, 100.0, curve[0].Equity)
	assert.Equal(t, 105.0, curve[1].Equity)
	assert.Equal(t, 110.0, curve[2].Equity)
}

func TestAppendAndListTrades(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	buy := models.Trade{
		Date: day("2025-07-01"), Ticker: "ABEO", Action: models.ActionBuy,
		Shares: 10, Price: 5.75, CostBasis: 57.50, Source: models.SourceManual,
		Reason: "initial entry",
	}
	sell := models.Trade{
		Date: day("2025-07-02"), Ticker: "ABEO", Action: models.ActionSell,
		Shares: 10, Price: 4.89, CostBasis: 57.50, PnL: -8.60,
		Source: models.SourceStopLoss, Reason: "stop loss triggered",
	}
	require.NoError(t, l.AppendTrade(ctx, buy))
	require.NoError(t, l.AppendTrade(ctx, sell))

	trades, err := l.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, models.ActionBuy, trades[0].Action)
	assert.Equal(t, models.SourceStopLoss, trades[1].Source)
	assert.Equal(t, -8.60, trades[1].PnL)
}

func TestLatestPricesSkipsTotalRow(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), snapshotDay("2025-07-01", 42.50, models.Snapshot{
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75, CurrentPrice: 5.80, TotalValue: 58, Action: models.SnapshotHold,
	})))

	prices, err := l.LatestPrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 5.80, prices["ABEO"].Close)
}

func TestExportAndImportSnapshots(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveDay(ctx, day("2025-07-01"), snapshotDay("2025-07-01", 42.50, models.Snapshot{
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75, StopLoss: 4.89,
		CurrentPrice: 5.80, TotalValue: 58, PnL: 0.5, Action: models.SnapshotBuy,
	})))

	path := filepath.Join(t.TempDir(), "portfolio_update.csv")
	require.NoError(t, ExportSnapshots(ctx, l, path))

	// Import into a fresh ledger and compare the reconstructed state.
	other := newTestLedger(t)
	count, err := ImportSnapshots(ctx, other, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pf, _, err := other.LoadPortfolio(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 42.50, pf.Cash)
	pos, held := pf.Position("ABEO")
	require.True(t, held)
	assert.Equal(t, 5.75, pos.CostBasis)
}
