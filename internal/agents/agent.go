// Package agents provides AI recommendation providers and the adapter
// that turns raw model output into validated trade proposals.
package agents

import (
	"context"

	"microcap-trader/internal/models"
)

// PortfolioContext is the snapshot of state handed to a provider when
// asking for recommendations.
type PortfolioContext struct {
	Date      string
	Cash      float64
	Equity    float64
	Positions []PositionContext
}

// PositionContext is one holding as the provider sees it.
type PositionContext struct {
	Ticker        string
	Shares        float64
	CostBasis     float64
	StopLoss      float64 // zero when no stop is set
	CurrentPrice  float64
	UnrealizedPnL float64
}

// Provider produces raw trade recommendations from a portfolio context.
// Implementations talk to one model backend; parsing and gating live in
// the Adapter so every backend is held to the same contract.
type Provider interface {
	Name() string
	Recommend(ctx context.Context, pctx PortfolioContext) (string, error)
}

// BuildContext converts the live portfolio plus current quotes into a
// provider context.
func BuildContext(date string, pf *models.Portfolio, quotes map[string]models.Quote) PortfolioContext {
	prices := make(map[string]float64, len(quotes))
	for ticker, q := range quotes {
		prices[ticker] = q.Close
	}

	pctx := PortfolioContext{
		Date:   date,
		Cash:   pf.Cash,
		Equity: models.Round2(pf.Equity(prices)),
	}
	for _, ticker := range pf.Tickers() {
		pos := pf.Positions[ticker]
		price := pos.CostBasis
		if p, ok := prices[ticker]; ok {
			price = p
		}
		pc := PositionContext{
			Ticker:        ticker,
			Shares:        pos.Shares,
			CostBasis:     pos.CostBasis,
			CurrentPrice:  price,
			UnrealizedPnL: models.Round2(pos.UnrealizedPnL(price)),
		}
		if pos.StopLoss != nil {
			pc.StopLoss = *pos.StopLoss
		}
		pctx.Positions = append(pctx.Positions, pc)
	}
	return pctx
}
