// internal/common/genai/http.go
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"counsel-workers/internal/common/config"
	commonhttp "counsel-workers/internal/common/http"
	"counsel-workers/internal/common/logger"
)

const httpMaxAttempts = 3

// HTTPGenerator posts prompts to an in-house gateway at {baseUrl}/api/ai/generate.
type HTTPGenerator struct {
	baseURL   string
	maxTokens int64
	client    *commonhttp.Client
	logger    logger.Logger
}

func NewHTTPGenerator(cfg config.GenAIConfig, log logger.Logger) *HTTPGenerator {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPGenerator{
		baseURL:   cfg.BaseURL,
		maxTokens: cfg.MaxTokens,
		client:    commonhttp.NewClient(timeout).WithHeader("Authorization", "Bearer "+cfg.APIKey),
		logger:    log,
	}
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt Prompt) (*Content, error) {
	maxTokens := g.maxTokens
	if prompt.MaxTokens > 0 {
		maxTokens = prompt.MaxTokens
	}
	body := generateRequest{
		Prompt:      prompt.Text(),
		System:      systemPrompt,
		MaxTokens:   maxTokens,
		Temperature: prompt.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < httpMaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrTimeout
			}
		}

		text, retry, err := g.post(ctx, body)
		if err == nil {
			return ParseContent(text, SourceHTTP)
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		if !retry {
			break
		}
		g.logger.Warn("genai request failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

// post sends one attempt and reports whether a failure is worth retrying.
func (g *HTTPGenerator) post(ctx context.Context, body generateRequest) (string, bool, error) {
	status, raw, err := g.client.DoJSON(ctx, http.MethodPost, g.baseURL+"/api/ai/generate", body)
	if err != nil {
		return "", true, err
	}
	if status != http.StatusOK {
		retry := status >= 500 || status == http.StatusTooManyRequests
		return "", retry, fmt.Errorf("status %d", status)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", false, fmt.Errorf("decode error: %v", err)
	}
	if out.Text == "" {
		return "", false, fmt.Errorf("empty response")
	}
	return out.Text, false, nil
}
