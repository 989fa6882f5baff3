package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaProvider implements Provider against a local Ollama server,
// for running the strategist on a local model with no API key.
type OllamaProvider struct {
	client  *resty.Client
	model   string
	maxRecs int
}

// NewOllamaProvider creates an Ollama-backed recommendation provider.
func NewOllamaProvider(host, model string, timeout time.Duration, maxRecs int) *OllamaProvider {
	client := resty.New()
	client.SetBaseURL(host)
	client.SetTimeout(timeout)

	return &OllamaProvider{
		client:  client,
		model:   model,
		maxRecs: maxRecs,
	}
}

// Name returns the provider identifier recorded on AI-sourced trades.
func (p *OllamaProvider) Name() string {
	return "ollama/" + p.model
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Recommend asks the local model for trade proposals.
func (p *OllamaProvider) Recommend(ctx context.Context, pctx PortfolioContext) (string, error) {
	req := ollamaGenerateRequest{
		Model:  p.model,
		System: systemPrompt,
		Prompt: BuildPrompt(pctx, p.maxRecs),
		Stream: false,
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode(), resp.String())
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("parsing ollama response: %w", err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return out.Response, nil
}
