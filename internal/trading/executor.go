// Package trading contains the trade executor, the stop-loss enforcer,
// and the daily cycle orchestrator.
package trading

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/ledger"
	"microcap-trader/internal/logging"
	"microcap-trader/internal/models"
)

// Executor validates trade intents against the portfolio and the day's
// market data, applies the ones that pass, and appends them to the
// trade log. It is the only component that mutates the portfolio.
type Executor struct {
	ledger         ledger.Ledger
	defaultStopPct float64 // percent below entry attached to buys without a stop
	maxPositions   int     // zero means unlimited
	logger         zerolog.Logger
}

// NewExecutor creates a trade executor.
func NewExecutor(l ledger.Ledger, defaultStopPct float64, maxPositions int, logger zerolog.Logger) *Executor {
	return &Executor{
		ledger:         l,
		defaultStopPct: defaultStopPct,
		maxPositions:   maxPositions,
		logger:         logger,
	}
}

// Execute validates one intent and, if it passes, mutates the portfolio
// and appends the trade. Validation failures return a typed error and
// leave the portfolio untouched; callers treat them as rejections, not
// faults.
//
// Checks run in a fixed order so rejection reasons are deterministic:
// quantity, then funds or inventory, then fill price sanity.
func (e *Executor) Execute(ctx context.Context, pf *models.Portfolio, intent models.TradeIntent, quote models.Quote) (models.Trade, error) {
	if intent.Shares <= 0 {
		return models.Trade{}, &apperrors.InvalidQuantityError{Ticker: intent.Ticker, Shares: intent.Shares}
	}

	switch intent.Action {
	case models.ActionBuy:
		return e.executeBuy(ctx, pf, intent, quote)
	case models.ActionSell:
		return e.executeSell(ctx, pf, intent, quote)
	default:
		return models.Trade{}, &apperrors.InvalidQuantityError{Ticker: intent.Ticker, Shares: intent.Shares}
	}
}

func (e *Executor) executeBuy(ctx context.Context, pf *models.Portfolio, intent models.TradeIntent, quote models.Quote) (models.Trade, error) {
	cost := models.Round2(intent.Shares * intent.Price)
	if cost > pf.Cash {
		return models.Trade{}, &apperrors.InsufficientCashError{
			Ticker:    intent.Ticker,
			Required:  cost,
			Available: pf.Cash,
		}
	}

	if err := e.checkPriceRange(intent, quote); err != nil {
		return models.Trade{}, err
	}

	if _, held := pf.Positions[intent.Ticker]; !held &&
		e.maxPositions > 0 && len(pf.Positions) >= e.maxPositions {
		return models.Trade{}, &apperrors.PositionLimitError{Ticker: intent.Ticker, Limit: e.maxPositions}
	}

	stop := intent.StopLoss
	if stop == nil && e.defaultStopPct > 0 {
		level := models.Round2(intent.Price * (1 - e.defaultStopPct/100))
		stop = &level
	}

	pos, held := pf.Positions[intent.Ticker]
	if held {
		// Weighted-average the basis across the old and new lots. A new
		// stop level on the intent replaces the old one.
		totalShares := pos.Shares + intent.Shares
		pos.CostBasis = (pos.Invested() + intent.Shares*intent.Price) / totalShares
		pos.Shares = totalShares
		if stop != nil {
			pos.StopLoss = stop
		}
	} else {
		pos = models.Position{
			Ticker:    intent.Ticker,
			Shares:    intent.Shares,
			CostBasis: intent.Price,
			StopLoss:  stop,
			EntryDate: quote.Date,
		}
	}

	pf.Cash = models.Round2(pf.Cash - cost)
	pf.Positions[intent.Ticker] = pos

	trade := models.Trade{
		Date:       quote.Date,
		Ticker:     intent.Ticker,
		Action:     models.ActionBuy,
		Shares:     intent.Shares,
		Price:      intent.Price,
		CostBasis:  cost,
		Reason:     intent.Reason,
		Source:     intent.Source,
		Provider:   intent.Provider,
		Confidence: intent.Confidence,
	}
	if err := e.ledger.AppendTrade(ctx, trade); err != nil {
		return models.Trade{}, apperrors.Wrap(err, "recording buy")
	}

	logging.LogTrade(e.logger, trade.Ticker, string(trade.Action), trade.Shares, trade.Price, string(trade.Source))
	return trade, nil
}

func (e *Executor) executeSell(ctx context.Context, pf *models.Portfolio, intent models.TradeIntent, quote models.Quote) (models.Trade, error) {
	pos, held := pf.Positions[intent.Ticker]
	if !held || intent.Shares > pos.Shares {
		heldShares := 0.0
		if held {
			heldShares = pos.Shares
		}
		return models.Trade{}, &apperrors.InsufficientSharesError{
			Ticker:    intent.Ticker,
			Requested: intent.Shares,
			Held:      heldShares,
		}
	}

	if err := e.checkPriceRange(intent, quote); err != nil {
		return models.Trade{}, err
	}

	proceeds := models.Round2(intent.Shares * intent.Price)
	basisSold := intent.Shares * pos.CostBasis
	realized := models.Round2(proceeds - basisSold)

	pf.Cash = models.Round2(pf.Cash + proceeds)
	pos.Shares -= intent.Shares
	if pos.Shares <= 0 {
		// Sold out. Never keep a zero-share position around.
		delete(pf.Positions, intent.Ticker)
	} else {
		// Partial exit: the basis of the remaining lot is unchanged.
		pf.Positions[intent.Ticker] = pos
	}

	trade := models.Trade{
		Date:       quote.Date,
		Ticker:     intent.Ticker,
		Action:     models.ActionSell,
		Shares:     intent.Shares,
		Price:      intent.Price,
		CostBasis:  models.Round2(basisSold),
		PnL:        realized,
		Reason:     intent.Reason,
		Source:     intent.Source,
		Provider:   intent.Provider,
		Confidence: intent.Confidence,
	}
	if err := e.ledger.AppendTrade(ctx, trade); err != nil {
		return models.Trade{}, apperrors.Wrap(err, "recording sell")
	}

	logging.LogTrade(e.logger, trade.Ticker, string(trade.Action), trade.Shares, trade.Price, string(trade.Source))
	return trade, nil
}

// checkPriceRange rejects fills outside the day's traded range. Forced
// stop-loss exits are exempt: they fill at the stop level by contract,
// even when the day gapped straight through it. Stale quotes carry no
// real range, so only the presence of a positive range is enforced.
func (e *Executor) checkPriceRange(intent models.TradeIntent, quote models.Quote) error {
	if intent.Source == models.SourceStopLoss {
		return nil
	}
	if quote.Stale || quote.Low <= 0 || quote.High <= 0 {
		return nil
	}
	if intent.Price < quote.Low || intent.Price > quote.High {
		return &apperrors.PriceOutOfRangeError{
			Ticker: intent.Ticker,
			Price:  intent.Price,
			Low:    quote.Low,
			High:   quote.High,
		}
	}
	return nil
}

// AdjustStopLoss moves (or sets) the stop level on a held position
// without trading. Raising a stop locks in gains; the executor does not
// police direction, only existence of the position and a positive level.
func (e *Executor) AdjustStopLoss(pf *models.Portfolio, ticker string, stop float64) error {
	pos, held := pf.Positions[ticker]
	if !held {
		return &apperrors.InsufficientSharesError{Ticker: ticker, Requested: 0, Held: 0}
	}
	if stop <= 0 {
		return &apperrors.InvalidQuantityError{Ticker: ticker, Shares: stop}
	}
	level := models.Round2(stop)
	pos.StopLoss = &level
	pf.Positions[ticker] = pos

	e.logger.Info().
		Str("ticker", ticker).
		Float64("stop", level).
		Msg("Stop loss adjusted")
	return nil
}
