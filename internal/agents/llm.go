package agents

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using the OpenAI chat API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	maxRecs int
}

// NewOpenAIProvider creates an OpenAI-backed recommendation provider.
func NewOpenAIProvider(apiKey, model string, maxRecs int) *OpenAIProvider {
	return &OpenAIProvider{
		client:  openai.NewClient(apiKey),
		model:   model,
		maxRecs: maxRecs,
	}
}

// Name returns the provider identifier recorded on AI-sourced trades.
func (p *OpenAIProvider) Name() string {
	return "openai/" + p.model
}

// Recommend asks the model for trade proposals and returns the raw
// response text for the adapter to parse.
func (p *OpenAIProvider) Recommend(ctx context.Context, pctx PortfolioContext) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(pctx, p.maxRecs)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
