package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
	"microcap-trader/pkg/utils"
)

// Resilient wraps a Gateway with retry and last-known-quote fallback.
// When the upstream fails after retries, the most recent successful
// quote for the ticker is returned with Stale set, so a flaky feed
// degrades the cycle instead of aborting it. If no prior quote exists
// the DataUnavailableError propagates; prices are never invented.
type Resilient struct {
	upstream Gateway
	retry    utils.RetryConfig
	logger   zerolog.Logger

	mu        sync.Mutex
	lastKnown map[string]models.Quote
}

// NewResilient wraps a gateway with retry and staleness fallback.
func NewResilient(upstream Gateway, retry utils.RetryConfig, logger zerolog.Logger) *Resilient {
	return &Resilient{
		upstream:  upstream,
		retry:     retry,
		logger:    logger,
		lastKnown: make(map[string]models.Quote),
	}
}

// Seed primes the fallback cache, typically from the previous day's
// persisted snapshot prices, so the first cycle of the day can survive
// an upstream outage.
func (r *Resilient) Seed(quotes []models.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range quotes {
		r.lastKnown[q.Ticker] = q
	}
}

// Quote fetches with retry, falling back to the last known quote.
func (r *Resilient) Quote(ctx context.Context, ticker string, date time.Time) (models.Quote, error) {
	quote, err := utils.RetryWithResult(ctx, r.retry, func() (models.Quote, error) {
		return r.upstream.Quote(ctx, ticker, date)
	})
	if err == nil {
		r.mu.Lock()
		r.lastKnown[ticker] = quote
		r.mu.Unlock()
		return quote, nil
	}

	r.mu.Lock()
	prior, ok := r.lastKnown[ticker]
	r.mu.Unlock()
	if ok {
		r.logger.Warn().
			Str("ticker", ticker).
			Str("last_known", prior.Day()).
			Err(err).
			Msg("Market data unavailable, using last known quote")
		prior.Stale = true
		return prior, nil
	}

	return models.Quote{}, apperrors.NewDataUnavailableError(ticker, date, err)
}

// History fetches with retry. There is no staleness fallback for
// ranges: analytics callers need real bars or an explicit error.
func (r *Resilient) History(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error) {
	return utils.RetryWithResult(ctx, r.retry, func() ([]models.Quote, error) {
		return r.upstream.History(ctx, ticker, start, end)
	})
}
