package infra

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openAIProvider fala com a API de chat completions (OpenAI ou compatível).
type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(apiKey, baseURL, model string, httpClient *http.Client) *openAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *openAIProvider) name() string { return ProviderOpenAI }

func (p *openAIProvider) complete(ctx context.Context, prompt string) (*completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}

	return &completion{
		text:             resp.Choices[0].Message.Content,
		promptTokens:     resp.Usage.PromptTokens,
		completionTokens: resp.Usage.CompletionTokens,
	}, nil
}
