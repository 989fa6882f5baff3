package agents

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a professional portfolio strategist managing a real-money micro-cap stock portfolio. You have full discretion over buys, sells, and stop-loss levels, subject to these hard rules: full-share positions only, no shorting, no leverage, no derivatives. Focus on U.S.-listed micro-cap stocks (market cap under $300M). Your goal is maximum risk-adjusted return.`

const responseInstructions = `Respond with ONLY a JSON array inside a fenced code block. Each element must have:
  "action": one of "buy", "sell", "hold", "adjust_stop_loss"
  "ticker": the stock symbol
  "shares": number of shares (omit or 0 for hold and adjust_stop_loss)
  "price": target execution price
  "stop_loss": stop level for buys and adjustments (optional for sells)
  "confidence": your conviction from 0.0 to 1.0
  "reasoning": one sentence

Example:
` + "```json" + `
[
  {"action": "buy", "ticker": "ABEO", "shares": 10, "price": 5.75, "stop_loss": 4.89, "confidence": 0.7, "reasoning": "Catalyst expected this quarter."}
]
` + "```"

// BuildPrompt renders the portfolio context into the user prompt.
func BuildPrompt(pctx PortfolioContext, maxRecommendations int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s\n", pctx.Date)
	fmt.Fprintf(&b, "Cash available: $%.2f\n", pctx.Cash)
	fmt.Fprintf(&b, "Total equity: $%.2f\n\n", pctx.Equity)

	if len(pctx.Positions) == 0 {
		b.WriteString("Current holdings: none\n")
	} else {
		b.WriteString("Current holdings:\n")
		for _, pos := range pctx.Positions {
			fmt.Fprintf(&b, "  %s: %.0f shares @ $%.2f basis, now $%.2f (PnL $%.2f)",
				pos.Ticker, pos.Shares, pos.CostBasis, pos.CurrentPrice, pos.UnrealizedPnL)
			if pos.StopLoss > 0 {
				fmt.Fprintf(&b, ", stop $%.2f", pos.StopLoss)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nPropose at most %d actions. Only propose trades you can fund with the cash above.\n\n", maxRecommendations)
	b.WriteString(responseInstructions)

	return b.String()
}

// ExtractJSON pulls the JSON payload out of a model response. Models
// wrap output in fenced code blocks despite instructions to the
// contrary, so the fence is stripped when present; otherwise the
// response is scanned for the outermost JSON array.
func ExtractJSON(response string) string {
	trimmed := strings.TrimSpace(response)

	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		rest := trimmed[idx+3:]
		// Skip a language tag like "json" on the fence line.
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			firstLine := strings.TrimSpace(rest[:nl])
			if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "[{") {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}
