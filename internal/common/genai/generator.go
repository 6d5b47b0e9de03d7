// internal/common/genai/generator.go
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/validation"
)

var (
	ErrTimeout          = errors.New("GENAI_TIMEOUT")
	ErrGenerationFailed = errors.New("GENAI_FAILED")
	ErrInvalidContent   = errors.New("GENAI_INVALID_CONTENT")
)

const (
	SourceAnthropic = "anthropic"
	SourceHTTP      = "http"
	SourceFallback  = "fallback"
)

// Prompt is a provider-neutral request for report narrative.
type Prompt struct {
	Instruction string
	Facts       []string
	MaxTokens   int64
	Temperature float64
}

// Text renders the prompt as a single user message.
func (p Prompt) Text() string {
	var b strings.Builder
	b.WriteString(p.Instruction)
	if len(p.Facts) > 0 {
		b.WriteString("\n\nCase facts:\n")
		for _, f := range p.Facts {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nRespond with a single JSON object with keys executive_summary (string), ")
	b.WriteString("strengths, risks and next_steps (arrays of short strings). No prose outside the JSON.")
	return b.String()
}

// Content is the narrative block embedded in generated reports.
type Content struct {
	ExecutiveSummary string   `json:"executive_summary"`
	Strengths        []string `json:"strengths"`
	Risks            []string `json:"risks"`
	NextSteps        []string `json:"next_steps"`
	Source           string   `json:"source,omitempty"`
}

// Generator produces report narrative.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*Content, error)
}

const systemPrompt = "You are a senior study-abroad counsellor writing internal notes for colleagues. " +
	"Be concrete, cautious about finances and visas, and never invent facts that are not in the case data."

var contentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"executive_summary", "strengths", "risks", "next_steps"},
	"properties": map[string]interface{}{
		"executive_summary": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 2000},
		"strengths":         stringList(6),
		"risks":             stringList(6),
		"next_steps":        stringList(8),
	},
}

func stringList(max int) map[string]interface{} {
	return map[string]interface{}{
		"type":     "array",
		"maxItems": max,
		"items":    map[string]interface{}{"type": "string", "minLength": 1},
	}
}

// ParseContent extracts the JSON object from raw model text and validates it.
func ParseContent(raw, source string) (*Content, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrInvalidContent)
	}
	body := raw[start : end+1]

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	res, err := validation.Validate(contentSchema, doc)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	var c Content
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	c.Source = source
	return &c, nil
}

// New builds the configured generator. Without an API key it returns the
// static fallback; otherwise the provider is wrapped so that any provider
// failure degrades to the fallback instead of failing the report.
func New(cfg config.GenAIConfig, log logger.Logger) Generator {
	if cfg.APIKey == "" {
		log.Warn("genai api key not configured, using static report narrative", nil)
		return Fallback{}
	}

	var primary Generator
	switch cfg.Provider {
	case "http":
		primary = NewHTTPGenerator(cfg, log)
	default:
		primary = NewAnthropicGenerator(cfg)
	}
	return &withFallback{primary: primary, log: log}
}

type withFallback struct {
	primary Generator
	log     logger.Logger
}

func (w *withFallback) Generate(ctx context.Context, prompt Prompt) (*Content, error) {
	content, err := w.primary.Generate(ctx, prompt)
	if err == nil {
		return content, nil
	}
	w.log.Warn("genai generation failed, using static narrative", map[string]interface{}{
		"error": err.Error(),
	})
	return Fallback{}.Generate(ctx, prompt)
}
