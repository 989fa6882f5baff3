package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"microcap-trader/internal/agents"
	"microcap-trader/internal/analytics"
	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/ledger"
	"microcap-trader/internal/logging"
	"microcap-trader/internal/marketdata"
	"microcap-trader/internal/models"
)

// CycleConfig holds the parameters of one daily run.
type CycleConfig struct {
	StartingCash float64
	Metrics      analytics.Config
}

// RejectedIntent pairs a rejected intent with the validation error
// that stopped it.
type RejectedIntent struct {
	Intent models.TradeIntent
	Err    error
}

// CycleResult summarizes one completed daily cycle.
type CycleResult struct {
	Date      time.Time
	Portfolio *models.Portfolio
	Executed  []models.Trade
	Rejected  []RejectedIntent
	Snapshots []models.Snapshot
	Metrics   analytics.Metrics
}

// Cycle orchestrates the daily processing run: load state, price the
// book, enforce stops, apply manual and AI trades, snapshot, report.
// Validation failures on individual intents never abort the run; only
// a ledger that cannot be read or written does.
type Cycle struct {
	ledger   ledger.Ledger
	gateway  marketdata.Gateway
	executor *Executor
	enforcer *Enforcer
	adapter  *agents.Adapter // nil when AI recommendations are disabled
	approver Approver
	cfg      CycleConfig
	logger   zerolog.Logger
}

// NewCycle assembles a daily cycle from its components. Pass a nil
// adapter to run without AI recommendations.
func NewCycle(l ledger.Ledger, gw marketdata.Gateway, ex *Executor, en *Enforcer,
	adapter *agents.Adapter, approver Approver, cfg CycleConfig, logger zerolog.Logger) *Cycle {
	if approver == nil {
		approver = AutoApprover{}
	}
	return &Cycle{
		ledger:   l,
		gateway:  gw,
		executor: ex,
		enforcer: en,
		adapter:  adapter,
		approver: approver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one full daily cycle for the given date.
func (c *Cycle) Run(ctx context.Context, date time.Time, manual []models.TradeIntent) (*CycleResult, error) {
	pf, lastDate, err := c.ledger.LoadPortfolio(ctx, c.cfg.StartingCash)
	if err != nil {
		return nil, apperrors.Wrap(err, "loading portfolio")
	}
	if !lastDate.IsZero() {
		c.logger.Info().
			Str("last_snapshot", lastDate.Format(models.DateFormat)).
			Float64("cash", pf.Cash).
			Int("positions", len(pf.Positions)).
			Msg("Portfolio loaded")
	}

	work := pf.Clone()
	day := date.Format(models.DateFormat)

	quotes := c.fetchQuotes(ctx, date, work, manual)

	var intents []models.TradeIntent
	intents = append(intents, c.enforcer.Check(work, quotes)...)
	intents = append(intents, manual...)

	result := &CycleResult{Date: date, Portfolio: work}

	if c.adapter != nil {
		aiIntents := c.collectAIIntents(ctx, day, work, quotes, result)
		intents = append(intents, aiIntents...)
	}

	boughtToday := make(map[string]bool)
	soldToday := make(map[string]bool)
	var exitRows []models.Snapshot

	for _, intent := range models.SortIntents(intents) {
		quote, ok := quotes[intent.Ticker]
		if !ok {
			var fetchErr error
			quote, fetchErr = c.gateway.Quote(ctx, intent.Ticker, date)
			if fetchErr != nil {
				c.logger.Warn().Err(fetchErr).Str("ticker", intent.Ticker).Msg("Skipping intent without market data")
				result.Rejected = append(result.Rejected, RejectedIntent{Intent: intent, Err: fetchErr})
				continue
			}
			quotes[intent.Ticker] = quote
		}

		priorBasis := 0.0
		if pos, held := work.Positions[intent.Ticker]; held {
			priorBasis = pos.CostBasis
		}

		trade, err := c.executor.Execute(ctx, work, intent, quote)
		if err != nil {
			if apperrors.IsValidation(err) {
				logging.LogRejection(c.logger, intent.Ticker, string(intent.Action), err.Error())
				result.Rejected = append(result.Rejected, RejectedIntent{Intent: intent, Err: err})
				continue
			}
			return nil, apperrors.Wrapf(err, "executing %s %s", intent.Action, intent.Ticker)
		}
		result.Executed = append(result.Executed, trade)

		switch trade.Action {
		case models.ActionBuy:
			boughtToday[trade.Ticker] = true
		case models.ActionSell:
			soldToday[trade.Ticker] = true
			if _, stillHeld := work.Positions[trade.Ticker]; !stillHeld {
				// Fully exited today: the position no longer produces a
				// holding row, so record the exit itself.
				action := models.SnapshotSell
				if trade.Source == models.SourceStopLoss {
					action = models.SnapshotStopLoss
				}
				exitRows = append(exitRows, models.Snapshot{
					Date:         date,
					Day:          day,
					Ticker:       trade.Ticker,
					Shares:       trade.Shares,
					CostBasis:    models.Round2(priorBasis),
					CurrentPrice: trade.Price,
					TotalValue:   models.Round2(trade.Shares * trade.Price),
					PnL:          trade.PnL,
					Action:       action,
				})
			}
		}
	}

	rows := c.buildSnapshots(date, work, quotes, boughtToday, soldToday, exitRows)
	result.Snapshots = rows

	if err := c.ledger.SaveDay(ctx, date, rows); err != nil {
		return nil, apperrors.Wrapf(err, "persisting snapshot for %s", day)
	}

	curve, err := c.ledger.EquityCurve(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading equity curve")
	}
	result.Metrics = analytics.Compute(curve, c.cfg.Metrics)

	c.logger.Info().
		Str("date", day).
		Int("executed", len(result.Executed)).
		Int("rejected", len(result.Rejected)).
		Float64("equity", result.Metrics.CurrentEquity).
		Msg("Cycle complete")

	return result, nil
}

// fetchQuotes prices every held ticker plus every ticker named by a
// manual intent. A ticker with no data at all is simply absent from
// the map; downstream steps treat it as held-at-cost.
func (c *Cycle) fetchQuotes(ctx context.Context, date time.Time, pf *models.Portfolio, manual []models.TradeIntent) map[string]models.Quote {
	wanted := make(map[string]bool)
	for _, ticker := range pf.Tickers() {
		wanted[ticker] = true
	}
	for _, intent := range manual {
		wanted[intent.Ticker] = true
	}

	quotes := make(map[string]models.Quote, len(wanted))
	for ticker := range wanted {
		quote, err := c.gateway.Quote(ctx, ticker, date)
		if err != nil {
			c.logger.Warn().Err(err).Str("ticker", ticker).Msg("No market data; holding at last known value")
			continue
		}
		quotes[ticker] = quote
	}
	return quotes
}

// collectAIIntents asks the adapter for recommendations, routes them
// through the approver, applies approved stop adjustments immediately,
// and returns the approved buy/sell intents. Provider failures degrade
// the cycle to manual-only rather than aborting it.
func (c *Cycle) collectAIIntents(ctx context.Context, day string,
	work *models.Portfolio, quotes map[string]models.Quote, result *CycleResult) []models.TradeIntent {

	pctx := agents.BuildContext(day, work, quotes)
	recs, err := c.adapter.Recommendations(ctx, pctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Recommendation provider failed; continuing without AI trades")
		return nil
	}

	approved := Approved(c.approver.Review(recs))

	var intents []models.TradeIntent
	for _, rec := range approved {
		switch {
		case rec.Action == models.RecommendAdjustStopLoss && rec.StopLoss != nil:
			if err := c.executor.AdjustStopLoss(work, rec.Ticker, *rec.StopLoss); err != nil {
				c.logger.Warn().Err(err).Str("ticker", rec.Ticker).Msg("Stop adjustment rejected")
				result.Rejected = append(result.Rejected, RejectedIntent{Intent: rec.Intent(), Err: err})
			}
		case rec.Actionable():
			intents = append(intents, rec.Intent())
		}
	}
	return intents
}

// buildSnapshots produces the date's rows: exits first, then held
// positions, then the TOTAL aggregate.
func (c *Cycle) buildSnapshots(date time.Time, pf *models.Portfolio, quotes map[string]models.Quote,
	boughtToday, soldToday map[string]bool, exitRows []models.Snapshot) []models.Snapshot {

	day := date.Format(models.DateFormat)
	rows := append([]models.Snapshot{}, exitRows...)

	var totalValue, totalPnL float64
	for _, row := range exitRows {
		totalPnL += row.PnL
	}

	for _, ticker := range pf.Tickers() {
		pos := pf.Positions[ticker]

		price := pos.CostBasis
		if quote, ok := quotes[ticker]; ok {
			price = quote.Close
		}

		action := models.SnapshotHold
		switch {
		case boughtToday[ticker]:
			action = models.SnapshotBuy
		case soldToday[ticker]:
			action = models.SnapshotSell
		}

		value := models.Round2(pos.MarketValue(price))
		pnl := models.Round2(pos.UnrealizedPnL(price))
		totalValue += value
		totalPnL += pnl

		row := models.Snapshot{
			Date:         date,
			Day:          day,
			Ticker:       ticker,
			Shares:       pos.Shares,
			CostBasis:    models.Round2(pos.CostBasis),
			CurrentPrice: models.Round2(price),
			TotalValue:   value,
			PnL:          pnl,
			Action:       action,
		}
		if pos.StopLoss != nil {
			row.StopLoss = *pos.StopLoss
		}
		rows = append(rows, row)
	}

	rows = append(rows, models.Snapshot{
		Date:        date,
		Day:         day,
		Ticker:      models.TotalTicker,
		TotalValue:  models.Round2(totalValue),
		PnL:         models.Round2(totalPnL),
		CashBalance: models.Round2(pf.Cash),
		TotalEquity: models.Round2(totalValue + pf.Cash),
	})

	return rows
}
