package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
	"microcap-trader/pkg/utils"
)

type scriptedGateway struct {
	quotes map[string]models.Quote
	fail   map[string]bool
	calls  int
}

func (g *scriptedGateway) Quote(ctx context.Context, ticker string, date time.Time) (models.Quote, error) {
	g.calls++
	if g.fail[ticker] {
		return models.Quote{}, apperrors.NewDataUnavailableError(ticker, date, nil)
	}
	return g.quotes[ticker], nil
}

func (g *scriptedGateway) History(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error) {
	g.calls++
	if g.fail[ticker] {
		return nil, apperrors.NewDataUnavailableError(ticker, end, nil)
	}
	return []models.Quote{g.quotes[ticker]}, nil
}

func fastRetry() utils.RetryConfig {
	return utils.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func testQuote(ticker string, close float64) models.Quote {
	return models.Quote{
		Ticker: ticker,
		Date:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Open:   close, High: close, Low: close, Close: close,
	}
}

func TestResilientPassesThroughOnSuccess(t *testing.T) {
	upstream := &scriptedGateway{quotes: map[string]models.Quote{
		"ABEO": testQuote("ABEO", 5.80),
	}}
	r := NewResilient(upstream, fastRetry(), zerolog.Nop())

	quote, err := r.Quote(context.Background(), "ABEO", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5.80, quote.Close)
	assert.False(t, quote.Stale)
}

func TestResilientFallsBackToLastKnownQuote(t *testing.T) {
	upstream := &scriptedGateway{quotes: map[string]models.Quote{
		"ABEO": testQuote("ABEO", 5.80),
	}}
	r := NewResilient(upstream, fastRetry(), zerolog.Nop())
	ctx := context.Background()

	_, err := r.Quote(ctx, "ABEO", time.Now())
	require.NoError(t, err)

	upstream.fail = map[string]bool{"ABEO": true}

	quote, err := r.Quote(ctx, "ABEO", time.Now())
	require.NoError(t, err, "a prior quote must absorb the outage")
	assert.True(t, quote.Stale)
	assert.Equal(t, 5.80, quote.Close)
}

func TestResilientNoPriorQuoteErrors(t *testing.T) {
	upstream := &scriptedGateway{fail: map[string]bool{"GHST": true}}
	r := NewResilient(upstream, fastRetry(), zerolog.Nop())

	_, err := r.Quote(context.Background(), "GHST", time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDataUnavailable))
}

func TestResilientSeedPrimesFallback(t *testing.T) {
	upstream := &scriptedGateway{fail: map[string]bool{"ABEO": true}}
	r := NewResilient(upstream, fastRetry(), zerolog.Nop())

	r.Seed([]models.Quote{testQuote("ABEO", 5.50)})

	quote, err := r.Quote(context.Background(), "ABEO", time.Now())
	require.NoError(t, err)
	assert.True(t, quote.Stale)
	assert.Equal(t, 5.50, quote.Close)
}

func TestResilientRetriesBeforeFallingBack(t *testing.T) {
	upstream := &scriptedGateway{fail: map[string]bool{"ABEO": true}}
	r := NewResilient(upstream, fastRetry(), zerolog.Nop())

	_, _ = r.Quote(context.Background(), "ABEO", time.Now())
	assert.Equal(t, 2, upstream.calls, "the configured attempts are exhausted before giving up")
}

func TestResilientHistoryHasNoStalenessFallback(t *testing.T) {
	upstream := &scriptedGateway{
		quotes: map[string]models.Quote{"ABEO": testQuote("ABEO", 5.80)},
	}
	r := NewResilient(upstream, fastRetry(), zerolog.Nop())
	ctx := context.Background()

	_, err := r.Quote(ctx, "ABEO", time.Now())
	require.NoError(t, err)

	upstream.fail = map[string]bool{"ABEO": true}
	_, err = r.History(ctx, "ABEO", time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err, "range queries must not silently degrade")
}
