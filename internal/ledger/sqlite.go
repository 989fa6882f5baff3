package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (or creates) the ledger database at dbPath.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single-operator ledger needs very little concurrency.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	l := &SQLiteLedger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	schema := `
	-- Daily portfolio snapshots. One row per (date, ticker) plus the
	-- TOTAL aggregate row per date.
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		ticker TEXT NOT NULL,
		shares REAL NOT NULL,
		cost_basis REAL NOT NULL,
		stop_loss REAL NOT NULL,
		current_price REAL NOT NULL,
		total_value REAL NOT NULL,
		pnl REAL NOT NULL,
		action TEXT NOT NULL,
		cash_balance REAL NOT NULL,
		total_equity REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(date, ticker)
	);

	-- Append-only trade log. Rows are never updated or deleted.
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		ticker TEXT NOT NULL,
		action TEXT NOT NULL,
		shares REAL NOT NULL,
		price REAL NOT NULL,
		cost_basis REAL NOT NULL,
		pnl REAL NOT NULL,
		reason TEXT,
		source TEXT NOT NULL,
		provider TEXT,
		confidence REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(date);
	CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
	CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
	`

	_, err := l.db.Exec(schema)
	return err
}

// SaveDay replaces the date's rows in one transaction. A crash between
// the delete and the inserts rolls back to the previous committed day.
func (l *SQLiteLedger) SaveDay(ctx context.Context, date time.Time, rows []models.Snapshot) error {
	day := date.Format(models.DateFormat)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE date = ?`, day); err != nil {
		return fmt.Errorf("clear existing rows for %s: %w", day, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (date, ticker, shares, cost_basis, stop_loss,
			current_price, total_value, pnl, action, cash_balance, total_equity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, day, row.Ticker, row.Shares, row.CostBasis,
			row.StopLoss, row.CurrentPrice, row.TotalValue, row.PnL,
			string(row.Action), row.CashBalance, row.TotalEquity)
		if err != nil {
			return fmt.Errorf("insert snapshot row %s/%s: %w", day, row.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot for %s: %w", day, err)
	}
	return nil
}

// AppendTrade appends one trade to the log.
func (l *SQLiteLedger) AppendTrade(ctx context.Context, trade models.Trade) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO trades (date, ticker, action, shares, price, cost_basis,
			pnl, reason, source, provider, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.Date.Format(models.DateFormat), trade.Ticker, string(trade.Action),
		trade.Shares, trade.Price, trade.CostBasis, trade.PnL, trade.Reason,
		string(trade.Source), trade.Provider, trade.Confidence)
	if err != nil {
		return fmt.Errorf("append trade %s %s: %w", trade.Action, trade.Ticker, err)
	}
	return nil
}

// LoadPortfolio reconstructs cash and open positions from the latest
// snapshot date. The TOTAL row supplies cash; per-ticker rows with
// positive shares become positions. Missing or inconsistent aggregate
// rows produce a CorruptStateError rather than a silently wrong state.
func (l *SQLiteLedger) LoadPortfolio(ctx context.Context, startingCash float64) (*models.Portfolio, time.Time, error) {
	// MAX over an empty table yields NULL, hence the NullString.
	var day sql.NullString
	if err := l.db.QueryRowContext(ctx, `SELECT MAX(date) FROM snapshots`).Scan(&day); err != nil {
		return nil, time.Time{}, fmt.Errorf("finding latest snapshot date: %w", err)
	}
	if !day.Valid || day.String == "" {
		return models.NewPortfolio(startingCash), time.Time{}, nil
	}

	date, err := time.Parse(models.DateFormat, day.String)
	if err != nil {
		return nil, time.Time{}, apperrors.NewCorruptStateError(day.String, fmt.Sprintf("unparseable snapshot date: %v", err))
	}

	rows, err := l.Snapshots(ctx, date)
	if err != nil {
		return nil, time.Time{}, err
	}

	portfolio := models.NewPortfolio(0)
	sawTotal := false
	var positionsValue float64

	for _, row := range rows {
		if row.IsTotal() {
			if sawTotal {
				return nil, time.Time{}, apperrors.NewCorruptStateError(day.String, "multiple TOTAL rows")
			}
			sawTotal = true
			portfolio.Cash = row.CashBalance
			continue
		}
		if row.Shares <= 0 {
			continue
		}
		pos := models.Position{
			Ticker:    row.Ticker,
			Shares:    row.Shares,
			CostBasis: row.CostBasis,
			EntryDate: date,
		}
		if row.StopLoss > 0 {
			stop := row.StopLoss
			pos.StopLoss = &stop
		}
		portfolio.Positions[row.Ticker] = pos
		positionsValue += row.TotalValue
	}

	if !sawTotal {
		return nil, time.Time{}, apperrors.NewCorruptStateError(day.String, "missing TOTAL row")
	}
	if portfolio.Cash < 0 {
		return nil, time.Time{}, apperrors.NewCorruptStateError(day.String, fmt.Sprintf("negative cash balance %.2f", portfolio.Cash))
	}

	return portfolio, date, nil
}

// Snapshots returns per-ticker rows first, TOTAL last, tickers sorted.
func (l *SQLiteLedger) Snapshots(ctx context.Context, date time.Time) ([]models.Snapshot, error) {
	day := date.Format(models.DateFormat)

	rows, err := l.db.QueryContext(ctx, `
		SELECT date, ticker, shares, cost_basis, stop_loss, current_price,
			total_value, pnl, action, cash_balance, total_equity
		FROM snapshots
		WHERE date = ?
		ORDER BY CASE WHEN ticker = ? THEN 1 ELSE 0 END, ticker`,
		day, models.TotalTicker)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for %s: %w", day, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// EquityCurve returns the TOTAL-row equity series, oldest first.
func (l *SQLiteLedger) EquityCurve(ctx context.Context) ([]models.EquityPoint, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT date, total_equity FROM snapshots
		WHERE ticker = ?
		ORDER BY date ASC`, models.TotalTicker)
	if err != nil {
		return nil, fmt.Errorf("query equity curve: %w", err)
	}
	defer rows.Close()

	var curve []models.EquityPoint
	for rows.Next() {
		var day string
		var equity float64
		if err := rows.Scan(&day, &equity); err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}
		date, err := time.Parse(models.DateFormat, day)
		if err != nil {
			return nil, apperrors.NewCorruptStateError(day, fmt.Sprintf("unparseable snapshot date: %v", err))
		}
		curve = append(curve, models.EquityPoint{Date: date, Equity: equity})
	}
	return curve, rows.Err()
}

// Trades returns the full trade log, oldest first.
func (l *SQLiteLedger) Trades(ctx context.Context) ([]models.Trade, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT date, ticker, action, shares, price, cost_basis, pnl,
			COALESCE(reason, ''), source, COALESCE(provider, ''), COALESCE(confidence, 0)
		FROM trades
		ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var day, action, source string
		if err := rows.Scan(&day, &t.Ticker, &action, &t.Shares, &t.Price,
			&t.CostBasis, &t.PnL, &t.Reason, &source, &t.Provider, &t.Confidence); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Date, _ = time.Parse(models.DateFormat, day)
		t.Action = models.TradeAction(action)
		t.Source = models.TradeSource(source)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// LatestPrices returns per-ticker quotes synthesized from the most
// recent snapshot rows, for seeding the fallback cache.
func (l *SQLiteLedger) LatestPrices(ctx context.Context) (map[string]models.Quote, error) {
	var day sql.NullString
	if err := l.db.QueryRowContext(ctx, `SELECT MAX(date) FROM snapshots`).Scan(&day); err != nil {
		return nil, fmt.Errorf("finding latest snapshot date: %w", err)
	}
	if !day.Valid || day.String == "" {
		return map[string]models.Quote{}, nil
	}

	date, err := time.Parse(models.DateFormat, day.String)
	if err != nil {
		return nil, apperrors.NewCorruptStateError(day.String, fmt.Sprintf("unparseable snapshot date: %v", err))
	}

	rows, err := l.Snapshots(ctx, date)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]models.Quote, len(rows))
	for _, row := range rows {
		if row.IsTotal() || row.CurrentPrice <= 0 {
			continue
		}
		prices[row.Ticker] = models.Quote{
			Ticker: row.Ticker,
			Date:   date,
			Open:   row.CurrentPrice,
			High:   row.CurrentPrice,
			Low:    row.CurrentPrice,
			Close:  row.CurrentPrice,
		}
	}
	return prices, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func scanSnapshots(rows *sql.Rows) ([]models.Snapshot, error) {
	var snapshots []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		var action string
		if err := rows.Scan(&s.Day, &s.Ticker, &s.Shares, &s.CostBasis,
			&s.StopLoss, &s.CurrentPrice, &s.TotalValue, &s.PnL,
			&action, &s.CashBalance, &s.TotalEquity); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		s.Action = models.SnapshotAction(action)
		s.Date, _ = time.Parse(models.DateFormat, s.Day)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
