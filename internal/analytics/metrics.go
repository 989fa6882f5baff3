// Package analytics computes performance metrics over the equity curve.
// All functions are pure: they read the curve, they never touch the
// ledger or the market.
package analytics

import (
	"math"

	"microcap-trader/internal/models"
)

// Metrics is the performance summary for an equity curve.
type Metrics struct {
	TotalReturn    float64 // fractional, e.g. 0.25 for +25%
	Sharpe         float64 // annualized
	Sortino        float64 // annualized
	MaxDrawdown    float64 // fractional, <= 0
	Days           int
	StartingEquity float64
	CurrentEquity  float64
}

// Config holds the annualization parameters.
type Config struct {
	RiskFreeRate       float64 // annual, e.g. 0.045
	TradingDaysPerYear int     // e.g. 252
}

// Compute derives all metrics from the equity curve. Curves with fewer
// than two points produce zero ratios rather than NaN: a one-day-old
// portfolio has no return series to annualize.
func Compute(curve []models.EquityPoint, cfg Config) Metrics {
	m := Metrics{Days: len(curve)}
	if len(curve) == 0 {
		return m
	}

	m.StartingEquity = curve[0].Equity
	m.CurrentEquity = curve[len(curve)-1].Equity
	if m.StartingEquity != 0 {
		m.TotalReturn = m.CurrentEquity/m.StartingEquity - 1
	}
	m.MaxDrawdown = MaxDrawdown(curve)

	returns := DailyReturns(curve)
	m.Sharpe = Sharpe(returns, cfg)
	m.Sortino = Sortino(returns, cfg)
	return m
}

// DailyReturns converts the equity curve into simple daily returns.
// Days where the prior equity is zero are skipped.
func DailyReturns(curve []models.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	return returns
}

// Sharpe returns the annualized Sharpe ratio of the daily return
// series. Fewer than two returns, or a flat series, yields zero.
func Sharpe(returns []float64, cfg Config) float64 {
	if len(returns) < 2 {
		return 0
	}
	rfDaily := dailyRiskFree(cfg)

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - rfDaily
	}

	std := stddev(excess)
	if std == 0 {
		return 0
	}
	return mean(excess) / std * math.Sqrt(float64(cfg.TradingDaysPerYear))
}

// Sortino returns the annualized Sortino ratio, penalizing only
// downside deviation. A series with no negative excess returns yields
// zero rather than infinity.
func Sortino(returns []float64, cfg Config) float64 {
	if len(returns) < 2 {
		return 0
	}
	rfDaily := dailyRiskFree(cfg)

	var sumSqNeg float64
	var negatives int
	excessMean := 0.0
	for _, r := range returns {
		excess := r - rfDaily
		excessMean += excess
		if excess < 0 {
			sumSqNeg += excess * excess
			negatives++
		}
	}
	excessMean /= float64(len(returns))

	if negatives == 0 {
		return 0
	}
	downside := math.Sqrt(sumSqNeg / float64(len(returns)))
	if downside == 0 {
		return 0
	}
	return excessMean / downside * math.Sqrt(float64(cfg.TradingDaysPerYear))
}

// MaxDrawdown returns the largest peak-to-trough decline as a
// non-positive fraction. A monotonically rising curve yields zero.
func MaxDrawdown(curve []models.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Equity
	maxDD := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := point.Equity/peak - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// NormalizeBenchmark rescales a benchmark's closing prices so its first
// point equals notional, making index levels directly comparable with
// the portfolio's equity curve.
func NormalizeBenchmark(quotes []models.Quote, notional float64) []models.EquityPoint {
	if len(quotes) == 0 || quotes[0].Close == 0 {
		return nil
	}
	scale := notional / quotes[0].Close
	points := make([]models.EquityPoint, len(quotes))
	for i, q := range quotes {
		points[i] = models.EquityPoint{Date: q.Date, Equity: q.Close * scale}
	}
	return points
}

func dailyRiskFree(cfg Config) float64 {
	if cfg.TradingDaysPerYear <= 0 {
		return 0
	}
	return cfg.RiskFreeRate / float64(cfg.TradingDaysPerYear)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
