package infra

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// anthropicProvider fala com a Messages API da Anthropic.
type anthropicProvider struct {
	client *anthropic.Client
	model  string
}

func newAnthropicProvider(apiKey, model string, httpClient *http.Client) *anthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicProvider{client: anthropic.NewClient(opts...), model: model}
}

func (p *anthropicProvider) name() string { return ProviderAnthropic }

func (p *anthropicProvider) complete(ctx context.Context, prompt string) (*completion, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(p.model)),
		MaxTokens: anthropic.F(int64(defaultMaxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, errors.New("anthropic: empty content")
	}

	return &completion{
		text:             b.String(),
		promptTokens:     int(resp.Usage.InputTokens),
		completionTokens: int(resp.Usage.OutputTokens),
	}, nil
}
