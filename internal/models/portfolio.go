package models

import (
	"math"
	"sort"
	"time"
)

// Position represents one open holding.
// Shares is strictly positive while the position exists; a position sold
// down to zero shares is removed from the portfolio, never kept at zero.
type Position struct {
	Ticker    string
	Shares    float64
	CostBasis float64  // volume-weighted average entry price per share
	StopLoss  *float64 // nil means no automatic liquidation level
	EntryDate time.Time
}

// Invested returns the total cost of the position at its average entry price.
func (p Position) Invested() float64 {
	return p.Shares * p.CostBasis
}

// MarketValue returns the position value at the given price.
func (p Position) MarketValue(price float64) float64 {
	return p.Shares * price
}

// UnrealizedPnL returns the open profit or loss at the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	return p.Shares * (price - p.CostBasis)
}

// Portfolio holds the cash balance and the open positions keyed by ticker.
// All mutation goes through the trade executor; nothing else writes here.
type Portfolio struct {
	Cash      float64
	Positions map[string]Position
}

// NewPortfolio creates an empty portfolio with a starting cash endowment.
func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Positions: make(map[string]Position),
	}
}

// Position returns the position for a ticker, if held.
func (pf *Portfolio) Position(ticker string) (Position, bool) {
	pos, ok := pf.Positions[ticker]
	return pos, ok
}

// Tickers returns the held tickers in deterministic order.
func (pf *Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(pf.Positions))
	for t := range pf.Positions {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Equity returns cash plus the market value of all positions at the
// given per-ticker prices. Tickers missing from prices are valued at
// their cost basis, matching the last known state.
func (pf *Portfolio) Equity(prices map[string]float64) float64 {
	total := pf.Cash
	for ticker, pos := range pf.Positions {
		price, ok := prices[ticker]
		if !ok {
			price = pos.CostBasis
		}
		total += pos.MarketValue(price)
	}
	return total
}

// Clone returns a deep copy. The executor mutates a clone so a failed
// cycle never leaves a half-applied portfolio visible to readers.
func (pf *Portfolio) Clone() *Portfolio {
	cp := &Portfolio{
		Cash:      pf.Cash,
		Positions: make(map[string]Position, len(pf.Positions)),
	}
	for ticker, pos := range pf.Positions {
		if pos.StopLoss != nil {
			stop := *pos.StopLoss
			pos.StopLoss = &stop
		}
		cp.Positions[ticker] = pos
	}
	return cp
}

// Round2 rounds a monetary amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
