package models

import "time"

// Snapshot is one persisted row describing a position (or the TOTAL
// aggregate) on a single date. Rows for a date are immutable once the
// day is committed; a re-run of the same date replaces that date's rows
// wholesale rather than appending duplicates.
//
// CashBalance and TotalEquity are populated only on the TOTAL row, and
// StopLoss only on per-ticker rows, mirroring the tabular layout that
// external dashboards consume.
type Snapshot struct {
	Date         time.Time      `csv:"-"`
	Day          string         `csv:"date"`
	Ticker       string         `csv:"ticker"`
	Shares       float64        `csv:"shares"`
	CostBasis    float64        `csv:"cost_basis"`
	StopLoss     float64        `csv:"stop_loss"`
	CurrentPrice float64        `csv:"current_price"`
	TotalValue   float64        `csv:"total_value"`
	PnL          float64        `csv:"pnl"`
	Action       SnapshotAction `csv:"action"`
	CashBalance  float64        `csv:"cash_balance"`
	TotalEquity  float64        `csv:"total_equity"`
}

// IsTotal reports whether this is the aggregate row for its date.
func (s Snapshot) IsTotal() bool {
	return s.Ticker == TotalTicker
}

// EquityPoint is one point of the TOTAL-row equity curve, the only
// input the analytics engine needs.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}
