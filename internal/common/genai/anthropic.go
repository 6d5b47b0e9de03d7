// internal/common/genai/anthropic.go
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"counsel-workers/internal/common/config"
)

// AnthropicGenerator calls the Messages API through the official SDK.
type AnthropicGenerator struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

func NewAnthropicGenerator(cfg config.GenAIConfig, opts ...option.RequestOption) *AnthropicGenerator {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(config.GetDuration(cfg.Timeout)))
	}
	reqOpts = append(reqOpts, opts...)

	return &AnthropicGenerator{
		client:    sdk.NewClient(reqOpts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt Prompt) (*Content, error) {
	maxTokens := g.maxTokens
	if prompt.MaxTokens > 0 {
		maxTokens = prompt.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt.Text())),
		},
	}
	if prompt.Temperature > 0 {
		params.Temperature = sdk.Float(prompt.Temperature)
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return ParseContent(text.String(), SourceAnthropic)
}
