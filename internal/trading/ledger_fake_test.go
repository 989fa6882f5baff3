package trading

import (
	"context"
	"time"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
)

// fakeLedger is an in-memory Ledger for tests.
type fakeLedger struct {
	startingCash float64
	portfolio    *models.Portfolio
	lastDate     time.Time
	trades       []models.Trade
	saved        map[string][]models.Snapshot
	savedOrder   []string
}

func newFakeLedger(startingCash float64) *fakeLedger {
	return &fakeLedger{
		startingCash: startingCash,
		saved:        make(map[string][]models.Snapshot),
	}
}

func (f *fakeLedger) SaveDay(ctx context.Context, date time.Time, rows []models.Snapshot) error {
	day := date.Format(models.DateFormat)
	if _, seen := f.saved[day]; !seen {
		f.savedOrder = append(f.savedOrder, day)
	}
	f.saved[day] = rows
	return nil
}

func (f *fakeLedger) AppendTrade(ctx context.Context, trade models.Trade) error {
	f.trades = append(f.trades, trade)
	return nil
}

func (f *fakeLedger) LoadPortfolio(ctx context.Context, startingCash float64) (*models.Portfolio, time.Time, error) {
	if f.portfolio == nil {
		return models.NewPortfolio(startingCash), time.Time{}, nil
	}
	return f.portfolio.Clone(), f.lastDate, nil
}

func (f *fakeLedger) Snapshots(ctx context.Context, date time.Time) ([]models.Snapshot, error) {
	return f.saved[date.Format(models.DateFormat)], nil
}

func (f *fakeLedger) EquityCurve(ctx context.Context) ([]models.EquityPoint, error) {
	var curve []models.EquityPoint
	for _, day := range f.savedOrder {
		for _, row := range f.saved[day] {
			if row.IsTotal() {
				date, _ := time.Parse(models.DateFormat, day)
				curve = append(curve, models.EquityPoint{Date: date, Equity: row.TotalEquity})
			}
		}
	}
	return curve, nil
}

func (f *fakeLedger) Trades(ctx context.Context) ([]models.Trade, error) {
	return f.trades, nil
}

func (f *fakeLedger) LatestPrices(ctx context.Context) (map[string]models.Quote, error) {
	return map[string]models.Quote{}, nil
}

func (f *fakeLedger) Close() error { return nil }

// fakeGateway serves quotes from a fixed map.
type fakeGateway struct {
	quotes map[string]models.Quote
	errs   map[string]error
}

func (f *fakeGateway) Quote(ctx context.Context, ticker string, date time.Time) (models.Quote, error) {
	if err, ok := f.errs[ticker]; ok {
		return models.Quote{}, err
	}
	q, ok := f.quotes[ticker]
	if !ok {
		return models.Quote{}, apperrors.NewDataUnavailableError(ticker, date, nil)
	}
	return q, nil
}

func (f *fakeGateway) History(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error) {
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, apperrors.NewDataUnavailableError(ticker, end, nil)
	}
	return []models.Quote{q}, nil
}
