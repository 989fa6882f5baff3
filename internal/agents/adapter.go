package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "microcap-trader/internal/errors"
	"microcap-trader/internal/logging"
	"microcap-trader/internal/models"
)

// Adapter turns a provider's raw response into gated recommendations.
// Parsing is recovered per item: one malformed element drops that
// element, never the batch. Only a fully unusable response is an error.
type Adapter struct {
	provider            Provider
	confidenceThreshold float64
	logger              zerolog.Logger
}

// NewAdapter creates a recommendation adapter over a provider.
func NewAdapter(provider Provider, confidenceThreshold float64, logger zerolog.Logger) *Adapter {
	return &Adapter{
		provider:            provider,
		confidenceThreshold: confidenceThreshold,
		logger:              logger,
	}
}

// Provider returns the underlying provider name.
func (a *Adapter) Provider() string {
	return a.provider.Name()
}

// rawRecommendation is the provider wire shape before validation.
type rawRecommendation struct {
	Action     string   `json:"action"`
	Ticker     string   `json:"ticker"`
	Shares     float64  `json:"shares"`
	Price      float64  `json:"price"`
	StopLoss   *float64 `json:"stop_loss"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Recommendations queries the provider and returns the parsed,
// confidence-gated batch. Items below the threshold are logged and
// dropped; malformed items are dropped with a parse warning.
func (a *Adapter) Recommendations(ctx context.Context, pctx PortfolioContext) ([]models.Recommendation, error) {
	raw, err := a.provider.Recommend(ctx, pctx)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", a.provider.Name(), err)
	}
	return a.Parse(raw)
}

// Parse extracts and validates recommendations from a raw response.
func (a *Adapter) Parse(raw string) ([]models.Recommendation, error) {
	payload := ExtractJSON(raw)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		// Some models return a single object instead of an array.
		var single json.RawMessage
		if err2 := json.Unmarshal([]byte(payload), &single); err2 == nil && strings.HasPrefix(strings.TrimSpace(payload), "{") {
			items = []json.RawMessage{single}
		} else {
			return nil, apperrors.NewRecommendationParseError(a.provider.Name(), raw, err)
		}
	}

	var recs []models.Recommendation
	for _, item := range items {
		rec, err := a.parseItem(item)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Dropping malformed recommendation")
			continue
		}
		if rec.Confidence < a.confidenceThreshold {
			a.logger.Info().
				Str("ticker", rec.Ticker).
				Str("action", string(rec.Action)).
				Float64("confidence", rec.Confidence).
				Float64("threshold", a.confidenceThreshold).
				Msg("Recommendation below confidence threshold")
			continue
		}
		logging.LogRecommendation(a.logger, rec.Provider, rec.Ticker, string(rec.Action), rec.Confidence, rec.Reasoning)
		recs = append(recs, rec)
	}
	return recs, nil
}

func (a *Adapter) parseItem(item json.RawMessage) (models.Recommendation, error) {
	var raw rawRecommendation
	if err := json.Unmarshal(item, &raw); err != nil {
		return models.Recommendation{}, apperrors.NewRecommendationParseError(a.provider.Name(), string(item), err)
	}

	action := models.RecommendationAction(strings.ToLower(strings.TrimSpace(raw.Action)))
	switch action {
	case models.RecommendBuy, models.RecommendSell, models.RecommendHold, models.RecommendAdjustStopLoss:
	default:
		return models.Recommendation{}, apperrors.NewRecommendationParseError(
			a.provider.Name(), string(item), fmt.Errorf("unknown action %q", raw.Action))
	}

	ticker := strings.ToUpper(strings.TrimSpace(raw.Ticker))
	if ticker == "" {
		return models.Recommendation{}, apperrors.NewRecommendationParseError(
			a.provider.Name(), string(item), fmt.Errorf("missing ticker"))
	}

	if action == models.RecommendBuy || action == models.RecommendSell {
		if raw.Shares <= 0 {
			return models.Recommendation{}, apperrors.NewRecommendationParseError(
				a.provider.Name(), string(item), fmt.Errorf("non-positive shares %g", raw.Shares))
		}
		if raw.Price <= 0 {
			return models.Recommendation{}, apperrors.NewRecommendationParseError(
				a.provider.Name(), string(item), fmt.Errorf("non-positive price %g", raw.Price))
		}
	}
	if action == models.RecommendAdjustStopLoss && (raw.StopLoss == nil || *raw.StopLoss <= 0) {
		return models.Recommendation{}, apperrors.NewRecommendationParseError(
			a.provider.Name(), string(item), fmt.Errorf("adjust_stop_loss without a stop level"))
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return models.Recommendation{}, apperrors.NewRecommendationParseError(
			a.provider.Name(), string(item), fmt.Errorf("confidence %g outside [0,1]", raw.Confidence))
	}

	return models.Recommendation{
		Action:     action,
		Ticker:     ticker,
		Shares:     raw.Shares,
		Price:      raw.Price,
		StopLoss:   raw.StopLoss,
		Confidence: raw.Confidence,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Provider:   a.provider.Name(),
	}, nil
}
