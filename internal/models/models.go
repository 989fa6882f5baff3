// Package models provides domain models for the portfolio ledger.
package models

import "time"

// DateFormat is the canonical date layout for snapshots and trades.
const DateFormat = "2006-01-02"

// TotalTicker marks the aggregate row written once per snapshot date.
const TotalTicker = "TOTAL"

// TradeAction represents the direction of a trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// SnapshotAction records what happened to a position on a snapshot date.
type SnapshotAction string

const (
	SnapshotHold     SnapshotAction = "HOLD"
	SnapshotBuy      SnapshotAction = "BUY"
	SnapshotSell     SnapshotAction = "SELL"
	SnapshotStopLoss SnapshotAction = "SELL - Stop Loss Triggered"
)

// TradeSource identifies who originated a trade intent.
type TradeSource string

const (
	SourceManual   TradeSource = "MANUAL"
	SourceAI       TradeSource = "AI"
	SourceStopLoss TradeSource = "STOP_LOSS"
)

// Quote represents one day of OHLCV data for a ticker.
// Stale is set when the gateway had to fall back to the last known price.
type Quote struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Stale  bool
}

// Day returns the quote's date formatted as a snapshot date string.
func (q Quote) Day() string {
	return q.Date.Format(DateFormat)
}
