package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"microcap-trader/internal/analytics"
	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/ledger"
	"microcap-trader/internal/marketdata"
	"microcap-trader/internal/models"
)

// BenchmarkResult is one index rebased to the portfolio's starting
// notional for an apples-to-apples comparison.
type BenchmarkResult struct {
	Ticker      string
	FinalValue  float64
	TotalReturn float64
}

// Report is the full performance summary.
type Report struct {
	Metrics    analytics.Metrics
	Curve      []models.EquityPoint
	Benchmarks []BenchmarkResult
	Trades     []models.Trade
}

// BuildReport computes portfolio metrics and the benchmark comparison
// over the ledger's full history. Benchmarks that cannot be fetched
// are skipped with a warning; the portfolio metrics never depend on
// them.
func BuildReport(ctx context.Context, l ledger.Ledger, gw marketdata.Gateway,
	benchmarks []string, cfg analytics.Config, logger zerolog.Logger) (*Report, error) {

	curve, err := l.EquityCurve(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading equity curve")
	}
	if len(curve) == 0 {
		return &Report{}, nil
	}

	trades, err := l.Trades(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading trade log")
	}

	report := &Report{
		Metrics: analytics.Compute(curve, cfg),
		Curve:   curve,
		Trades:  trades,
	}

	start := curve[0].Date
	end := curve[len(curve)-1].Date
	notional := curve[0].Equity

	for _, ticker := range benchmarks {
		points := fetchBenchmark(ctx, gw, ticker, start, end, notional, logger)
		if points == nil {
			continue
		}
		final := points[len(points)-1].Equity
		ret := 0.0
		if notional != 0 {
			ret = final/notional - 1
		}
		report.Benchmarks = append(report.Benchmarks, BenchmarkResult{
			Ticker:      ticker,
			FinalValue:  models.Round2(final),
			TotalReturn: ret,
		})
	}

	return report, nil
}

func fetchBenchmark(ctx context.Context, gw marketdata.Gateway, ticker string,
	start, end time.Time, notional float64, logger zerolog.Logger) []models.EquityPoint {

	bars, err := gw.History(ctx, ticker, start, end)
	if err != nil {
		logger.Warn().Err(err).Str("benchmark", ticker).Msg("Skipping benchmark")
		return nil
	}
	points := analytics.NormalizeBenchmark(bars, notional)
	if len(points) == 0 {
		logger.Warn().Str("benchmark", ticker).Msg("Benchmark had no usable bars")
		return nil
	}
	return points
}
