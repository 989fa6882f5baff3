package agents

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
)

type staticProvider struct {
	response string
	err      error
}

func (p *staticProvider) Name() string { return "test/static" }

func (p *staticProvider) Recommend(ctx context.Context, pctx PortfolioContext) (string, error) {
	return p.response, p.err
}

func newTestAdapter(response string, threshold float64) *Adapter {
	return NewAdapter(&staticProvider{response: response}, threshold, zerolog.Nop())
}

func TestAdapterParsesFencedJSON(t *testing.T) {
	response := "Here is my analysis.\n```json\n" +
		`[{"action": "buy", "ticker": "abeo", "shares": 10, "price": 5.75, "stop_loss": 4.89, "confidence": 0.7, "reasoning": "Catalyst ahead."}]` +
		"\n```\nGood luck!"

	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, models.RecommendBuy, rec.Action)
	assert.Equal(t, "ABEO", rec.Ticker, "tickers are normalized to upper case")
	assert.Equal(t, 10.0, rec.Shares)
	assert.Equal(t, 5.75, rec.Price)
	require.NotNil(t, rec.StopLoss)
	assert.Equal(t, 4.89, *rec.StopLoss)
	assert.Equal(t, "test/static", rec.Provider)
}

func TestAdapterParsesBareArray(t *testing.T) {
	response := `[{"action": "sell", "ticker": "IINN", "shares": 5, "price": 3.00, "confidence": 0.9, "reasoning": "Take profit."}]`
	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendSell, recs[0].Action)
}

func TestAdapterAcceptsSingleObject(t *testing.T) {
	response := `{"action": "hold", "ticker": "ABEO", "confidence": 0.8, "reasoning": "No change."}`
	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendHold, recs[0].Action)
	assert.False(t, recs[0].Actionable())
}

func TestAdapterDropsMalformedItemsKeepsRest(t *testing.T) {
	response := `[
		{"action": "buy", "ticker": "ABEO", "shares": 10, "price": 5.75, "confidence": 0.7, "reasoning": "ok"},
		{"action": "teleport", "ticker": "IINN", "shares": 5, "price": 3.0, "confidence": 0.9},
		{"action": "buy", "ticker": "", "shares": 5, "price": 3.0, "confidence": 0.9},
		{"action": "buy", "ticker": "CADL", "shares": 0, "price": 3.0, "confidence": 0.9},
		{"action": "sell", "ticker": "GHST", "shares": 2, "price": 1.5, "confidence": 0.6, "reasoning": "exit"}
	]`

	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err, "malformed items drop without failing the batch")
	require.Len(t, recs, 2)
	assert.Equal(t, "ABEO", recs[0].Ticker)
	assert.Equal(t, "GHST", recs[1].Ticker)
}

func TestAdapterConfidenceGate(t *testing.T) {
	response := `[
		{"action": "buy", "ticker": "ABEO", "shares": 10, "price": 5.75, "confidence": 0.29, "reasoning": "weak"},
		{"action": "buy", "ticker": "IINN", "shares": 10, "price": 2.50, "confidence": 0.30, "reasoning": "at threshold"}
	]`

	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err)
	require.Len(t, recs, 1, "items below the threshold are dropped; at-threshold survives")
	assert.Equal(t, "IINN", recs[0].Ticker)
}

func TestAdapterRejectsConfidenceOutsideUnitRange(t *testing.T) {
	response := `[{"action": "buy", "ticker": "ABEO", "shares": 10, "price": 5.75, "confidence": 7, "reasoning": "percent scale"}]`
	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err)
	assert.Empty(t, recs, "confidence outside [0,1] is malformed, not high conviction")
}

func TestAdapterUnusableResponseIsParseError(t *testing.T) {
	_, err := newTestAdapter("I cannot help with that.", 0.3).Parse("I cannot help with that.")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRecommendationParse))
}

func TestAdapterAdjustStopLossRequiresLevel(t *testing.T) {
	response := `[
		{"action": "adjust_stop_loss", "ticker": "ABEO", "confidence": 0.8, "reasoning": "no level"},
		{"action": "adjust_stop_loss", "ticker": "IINN", "stop_loss": 2.25, "confidence": 0.8, "reasoning": "raise stop"}
	]`

	recs, err := newTestAdapter(response, 0.3).Parse(response)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendAdjustStopLoss, recs[0].Action)
	assert.Equal(t, "IINN", recs[0].Ticker)
}

func TestExtractJSONVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fenced with tag", "```json\n[1,2]\n```", "[1,2]"},
		{"fenced no tag", "```\n[1,2]\n```", "[1,2]"},
		{"prose around array", "Sure: [1,2] hope that helps", "[1,2]"},
		{"bare array", "[1,2]", "[1,2]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}

func TestRecommendationsPropagatesProviderError(t *testing.T) {
	adapter := NewAdapter(&staticProvider{err: assert.AnError}, 0.3, zerolog.Nop())
	_, err := adapter.Recommendations(context.Background(), PortfolioContext{})
	require.Error(t, err)
}

func TestBuildContext(t *testing.T) {
	stop := 4.89
	pf := models.NewPortfolio(42.50)
	pf.Positions["ABEO"] = models.Position{
		Ticker: "ABEO", Shares: 10, CostBasis: 5.75, StopLoss: &stop,
	}

	pctx := BuildContext("2025-07-01", pf, map[string]models.Quote{
		"ABEO": {Ticker: "ABEO", Close: 5.80},
	})

	assert.Equal(t, 42.50, pctx.Cash)
	assert.InDelta(t, 100.50, pctx.Equity, 1e-9)
	require.Len(t, pctx.Positions, 1)
	assert.Equal(t, 5.80, pctx.Positions[0].CurrentPrice)
	assert.InDelta(t, 0.50, pctx.Positions[0].UnrealizedPnL, 1e-9)
	assert.Equal(t, 4.89, pctx.Positions[0].StopLoss)
}
