package trading

import (
	"github.com/rs/zerolog"

	"microcap-trader/internal/logging"
	"microcap-trader/internal/models"
)

// Enforcer scans open positions against the day's lows and emits
// forced full-size sell intents for every breached stop. It runs before
// any voluntary trade each cycle so cash checks see the post-exit
// balance.
type Enforcer struct {
	logger zerolog.Logger
}

// NewEnforcer creates a stop-loss enforcer.
func NewEnforcer(logger zerolog.Logger) *Enforcer {
	return &Enforcer{logger: logger}
}

// Check returns one sell intent per breached position. A stop is
// breached when the day's low touches or crosses it; the fill price is
// the stop level itself, the standard fill assumption for a resting
// stop order. Positions without a stop are exempt, as are positions
// whose quote is stale: a carried-forward close has no real intraday
// low to compare against.
func (e *Enforcer) Check(pf *models.Portfolio, quotes map[string]models.Quote) []models.TradeIntent {
	var intents []models.TradeIntent

	for _, ticker := range pf.Tickers() {
		pos := pf.Positions[ticker]
		if pos.StopLoss == nil {
			continue
		}
		quote, ok := quotes[ticker]
		if !ok || quote.Stale {
			continue
		}
		stop := *pos.StopLoss
		if quote.Low > stop {
			continue
		}

		logging.LogStopLoss(e.logger, ticker, pos.Shares, stop, quote.Low)

		intents = append(intents, models.TradeIntent{
			Ticker: ticker,
			Action: models.ActionSell,
			Shares: pos.Shares,
			Price:  stop,
			Reason: "stop loss triggered",
			Source: models.SourceStopLoss,
		})
	}

	return intents
}
