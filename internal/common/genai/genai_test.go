// internal/common/genai/genai_test.go
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/logger"
)

const validJSON = `{"executive_summary":"Strong applicant.","strengths":["Liquid funds"],"risks":["No IELTS yet"],"next_steps":["Book IELTS"]}`

func TestParseContent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "bare object", raw: validJSON},
		{name: "wrapped in prose", raw: "Here you go:\n" + validJSON + "\nThanks"},
		{name: "no object", raw: "I cannot help with that", wantErr: true},
		{name: "missing keys", raw: `{"executive_summary":"x"}`, wantErr: true},
		{name: "wrong type", raw: `{"executive_summary":"x","strengths":"a","risks":[],"next_steps":[]}`, wantErr: true},
		{name: "empty summary", raw: `{"executive_summary":"","strengths":[],"risks":[],"next_steps":[]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseContent(tt.raw, SourceHTTP)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidContent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Strong applicant.", c.ExecutiveSummary)
			assert.Equal(t, []string{"Book IELTS"}, c.NextSteps)
			assert.Equal(t, SourceHTTP, c.Source)
		})
	}
}

func TestHTTPGenerator_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "GPA 3.5")
		assert.Equal(t, int64(512), req.MaxTokens)

		json.NewEncoder(w).Encode(generateResponse{Text: validJSON})
	}))
	defer server.Close()

	g := NewHTTPGenerator(config.GenAIConfig{BaseURL: server.URL, APIKey: "key", MaxTokens: 512, Timeout: 2000}, logger.NewTestLogger(t))
	c, err := g.Generate(context.Background(), Prompt{Instruction: "Summarise", Facts: []string{"GPA 3.5"}})

	require.NoError(t, err)
	assert.Equal(t, SourceHTTP, c.Source)
	assert.Equal(t, []string{"Liquid funds"}, c.Strengths)
}

func TestHTTPGenerator_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req), "body must be readable on every attempt")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Text: validJSON})
	}))
	defer server.Close()

	g := NewHTTPGenerator(config.GenAIConfig{BaseURL: server.URL, APIKey: "key", Timeout: 2000}, logger.NewTestLogger(t))
	c, err := g.Generate(context.Background(), Prompt{Instruction: "Summarise"})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.NotEmpty(t, c.ExecutiveSummary)
}

func TestHTTPGenerator_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	g := NewHTTPGenerator(config.GenAIConfig{BaseURL: server.URL, APIKey: "key", Timeout: 2000}, logger.NewTestLogger(t))
	_, err := g.Generate(context.Background(), Prompt{Instruction: "Summarise"})

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPGenerator_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	g := NewHTTPGenerator(config.GenAIConfig{BaseURL: server.URL, APIKey: "key", Timeout: 2000}, logger.NewTestLogger(t))
	_, err := g.Generate(ctx, Prompt{Instruction: "Summarise"})

	assert.ErrorIs(t, err, ErrTimeout)
}

func anthropicServer(t *testing.T, text string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/messages")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
}

func TestAnthropicGenerator(t *testing.T) {
	server := anthropicServer(t, validJSON)
	defer server.Close()

	g := NewAnthropicGenerator(config.GenAIConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 256,
	}, option.WithMaxRetries(0))

	c, err := g.Generate(context.Background(), Prompt{Instruction: "Summarise"})
	require.NoError(t, err)
	assert.Equal(t, SourceAnthropic, c.Source)
	assert.Equal(t, []string{"No IELTS yet"}, c.Risks)
}

func TestAnthropicGenerator_InvalidContent(t *testing.T) {
	server := anthropicServer(t, "Sorry, no JSON today.")
	defer server.Close()

	g := NewAnthropicGenerator(config.GenAIConfig{APIKey: "k", BaseURL: server.URL, Model: "m", MaxTokens: 64}, option.WithMaxRetries(0))
	_, err := g.Generate(context.Background(), Prompt{Instruction: "Summarise"})

	assert.ErrorIs(t, err, ErrInvalidContent)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, Prompt) (*Content, error) {
	return nil, errors.New("boom")
}

func TestNew(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("no api key uses fallback", func(t *testing.T) {
		g := New(config.GenAIConfig{Provider: "anthropic"}, log)
		_, ok := g.(Fallback)
		assert.True(t, ok)
	})

	t.Run("http provider", func(t *testing.T) {
		g := New(config.GenAIConfig{Provider: "http", APIKey: "k"}, log)
		wf, ok := g.(*withFallback)
		require.True(t, ok)
		assert.IsType(t, &HTTPGenerator{}, wf.primary)
	})

	t.Run("anthropic provider", func(t *testing.T) {
		g := New(config.GenAIConfig{Provider: "anthropic", APIKey: "k"}, log)
		wf, ok := g.(*withFallback)
		require.True(t, ok)
		assert.IsType(t, &AnthropicGenerator{}, wf.primary)
	})
}

func TestWithFallback_DegradesOnError(t *testing.T) {
	g := &withFallback{primary: failingGenerator{}, log: logger.NewTestLogger(t)}

	c, err := g.Generate(context.Background(), Prompt{Facts: []string{"Status HOT"}})

	require.NoError(t, err)
	assert.Equal(t, SourceFallback, c.Source)
	assert.Contains(t, c.ExecutiveSummary, "Status HOT")
	assert.NotEmpty(t, c.NextSteps)
}
