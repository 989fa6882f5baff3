// Package marketdata fetches daily OHLCV quotes for tickers and
// benchmark indices.
package marketdata

import (
	"context"
	"time"

	"microcap-trader/internal/models"
)

// Gateway provides daily market data. Implementations must return a
// DataUnavailableError when no data exists for the requested span, and
// must never fabricate prices.
type Gateway interface {
	// Quote returns the OHLCV bar for a ticker on the given date. When
	// the date is a non-trading day the most recent prior bar is
	// returned with its own date.
	Quote(ctx context.Context, ticker string, date time.Time) (models.Quote, error)

	// History returns daily bars for [start, end], oldest first.
	History(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error)
}
