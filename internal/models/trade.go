package models

import "time"

// Trade represents an executed, immutable transaction. Trades are
// append-only: once written they are never mutated, only superseded
// by later trades.
type Trade struct {
	Date       time.Time
	Ticker     string
	Action     TradeAction
	Shares     float64
	Price      float64
	CostBasis  float64 // total cost for buys, basis of the sold lot for sells
	PnL        float64 // realized PnL, zero for buys
	Reason     string
	Source     TradeSource
	Provider   string  // set only for AI-sourced trades
	Confidence float64 // 0-1, set only for AI-sourced trades
}

// TradeIntent is an unvalidated request to buy or sell. Intents come
// from the operator, the stop-loss enforcer, or the recommendation
// adapter, and only become trades after passing validation.
type TradeIntent struct {
	Ticker     string
	Action     TradeAction
	Shares     float64
	Price      float64
	StopLoss   *float64 // for buys: stop level attached to the position
	Reason     string
	Source     TradeSource
	Provider   string
	Confidence float64
}

// sourceRank orders intents within a cycle: forced risk exits are
// applied before manual entries, which precede AI entries, so later
// cash checks see the post-stop-loss balance.
func sourceRank(s TradeSource) int {
	switch s {
	case SourceStopLoss:
		return 0
	case SourceManual:
		return 1
	case SourceAI:
		return 2
	default:
		return 3
	}
}

// SortIntents orders a cycle's intents as STOP_LOSS, MANUAL, AI while
// preserving the arrival order within each source.
func SortIntents(intents []TradeIntent) []TradeIntent {
	sorted := make([]TradeIntent, 0, len(intents))
	for rank := 0; rank <= 3; rank++ {
		for _, intent := range intents {
			if sourceRank(intent.Source) == rank {
				sorted = append(sorted, intent)
			}
		}
	}
	return sorted
}
