package models

// RecommendationAction is the action proposed by a provider.
type RecommendationAction string

const (
	RecommendBuy            RecommendationAction = "buy"
	RecommendSell           RecommendationAction = "sell"
	RecommendHold           RecommendationAction = "hold"
	RecommendAdjustStopLoss RecommendationAction = "adjust_stop_loss"
)

// Recommendation is an ephemeral, machine-generated trade proposal. It
// is never persisted on its own: it becomes a Trade only after passing
// the same validation as manual trades, and in interactive mode only
// after explicit operator approval.
type Recommendation struct {
	Action     RecommendationAction
	Ticker     string
	Shares     float64
	Price      float64
	StopLoss   *float64
	Confidence float64 // 0-1
	Reasoning  string
	Provider   string
}

// Actionable reports whether the recommendation can produce a trade
// intent. HOLD and stop-loss adjustments carry no buy/sell to execute.
func (r Recommendation) Actionable() bool {
	return r.Action == RecommendBuy || r.Action == RecommendSell
}

// Intent converts an actionable recommendation into an AI-sourced
// trade intent for the executor.
func (r Recommendation) Intent() TradeIntent {
	action := ActionBuy
	if r.Action == RecommendSell {
		action = ActionSell
	}
	return TradeIntent{
		Ticker:     r.Ticker,
		Action:     action,
		Shares:     r.Shares,
		Price:      r.Price,
		StopLoss:   r.StopLoss,
		Reason:     r.Reasoning,
		Source:     SourceAI,
		Provider:   r.Provider,
		Confidence: r.Confidence,
	}
}

// ApprovalState tracks the operator decision on a pending recommendation.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "PENDING"
	ApprovalApproved ApprovalState = "APPROVED"
	ApprovalRejected ApprovalState = "REJECTED"
)

// PendingRecommendation pairs a recommendation with its approval state
// while it waits between the adapter's output and the executor's input.
type PendingRecommendation struct {
	Recommendation Recommendation
	State          ApprovalState
}
