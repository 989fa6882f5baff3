package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/models"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient fetches daily bars from the Yahoo Finance chart API. It
// needs no API key; Yahoo rate-limits by IP, so callers should keep the
// request volume to one batch per cycle.
type YahooClient struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewYahooClient creates a Yahoo Finance gateway.
func NewYahooClient(timeout time.Duration, logger zerolog.Logger) *YahooClient {
	client := resty.New()
	client.SetBaseURL(yahooBaseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; microcap-trader/1.0)")

	return &YahooClient{
		client: client,
		logger: logger,
	}
}

// yahooChartResponse mirrors the subset of the chart API payload we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote returns the bar for date, or the most recent prior bar when the
// date is a weekend or holiday. It looks back up to ten calendar days so
// a Monday query after a long weekend still resolves.
func (c *YahooClient) Quote(ctx context.Context, ticker string, date time.Time) (models.Quote, error) {
	start := date.AddDate(0, 0, -10)
	bars, err := c.History(ctx, ticker, start, date)
	if err != nil {
		return models.Quote{}, err
	}
	if len(bars) == 0 {
		return models.Quote{}, apperrors.NewDataUnavailableError(ticker, date, nil)
	}
	// Bars are oldest-first; the last one at or before date wins.
	return bars[len(bars)-1], nil
}

// History returns daily bars for [start, end], oldest first. Rows with
// null OHLC values (halted days) are skipped.
func (c *YahooClient) History(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error) {
	// Yahoo treats period2 as exclusive; push it past end-of-day.
	period1 := start.Unix()
	period2 := end.AddDate(0, 0, 1).Unix()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(period1, 10),
			"period2":  strconv.FormatInt(period2, 10),
			"interval": "1d",
			"events":   "history",
		}).
		Get("/v8/finance/chart/" + url.PathEscape(ticker))
	if err != nil {
		return nil, apperrors.NewDataUnavailableError(ticker, end, err)
	}

	if resp.StatusCode() == 404 {
		return nil, apperrors.NewDataUnavailableError(ticker, end, fmt.Errorf("unknown symbol"))
	}
	if resp.StatusCode() != 200 {
		return nil, apperrors.NewDataUnavailableError(ticker, end,
			fmt.Errorf("chart API returned %d: %s", resp.StatusCode(), resp.String()))
	}

	var chart yahooChartResponse
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, apperrors.NewDataUnavailableError(ticker, end, fmt.Errorf("parsing chart response: %w", err))
	}

	if chart.Chart.Error != nil {
		return nil, apperrors.NewDataUnavailableError(ticker, end,
			fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperrors.NewDataUnavailableError(ticker, end, fmt.Errorf("empty chart result"))
	}

	result := chart.Chart.Result[0]
	ohlcv := result.Indicators.Quote[0]

	quotes := make([]models.Quote, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(ohlcv.Close) || ohlcv.Close[i] == nil || ohlcv.Low[i] == nil || ohlcv.High[i] == nil {
			continue
		}
		q := models.Quote{
			Ticker: ticker,
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			High:   *ohlcv.High[i],
			Low:    *ohlcv.Low[i],
			Close:  *ohlcv.Close[i],
		}
		if i < len(ohlcv.Open) && ohlcv.Open[i] != nil {
			q.Open = *ohlcv.Open[i]
		}
		if i < len(ohlcv.Volume) && ohlcv.Volume[i] != nil {
			q.Volume = *ohlcv.Volume[i]
		}
		quotes = append(quotes, q)
	}

	if len(quotes) == 0 {
		return nil, apperrors.NewDataUnavailableError(ticker, end, fmt.Errorf("no usable bars in range"))
	}

	c.logger.Debug().
		Str("ticker", ticker).
		Int("bars", len(quotes)).
		Msg("Fetched history")

	return quotes, nil
}
