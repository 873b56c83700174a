package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsidyscout/internal/config"
)

func TestNewClientFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	_, err := NewClientFromConfig(cfg, "")
	require.ErrorIs(t, err, ErrNotConfigured)

	cfg.LLM.OpenAI.APIKey = "sk-test"
	c, err := NewClientFromConfig(cfg, "")
	require.NoError(t, err)
	provider, model := Describe(c)
	assert.Equal(t, "openai", provider)
	assert.Equal(t, cfg.LLM.OpenAI.Model, model)

	cfg.LLM.Anthropic.APIKey = "ak-test"
	c, err = NewClientFromConfig(cfg, "Anthropic")
	require.NoError(t, err)
	provider, _ = Describe(c)
	assert.Equal(t, "anthropic", provider)

	_, err = NewClientFromConfig(cfg, "google")
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClientFromConfig(cfg, "mistral")
	require.Error(t, err)
}

func TestDescribe_Custom(t *testing.T) {
	f := CompleterFunc(func(context.Context, CompletionRequest) (string, error) { return "", nil })
	provider, model := Describe(f)
	assert.Equal(t, "custom", provider)
	assert.Empty(t, model)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	c := &openAIClient{apiKey: "sk-test", baseURL: srv.URL, model: "gpt-test", http: srv.Client()}
	out, err := c.Complete(context.Background(), CompletionRequest{
		System:      "sys",
		Prompt:      "user prompt",
		Temperature: 0.1,
		MaxTokens:   2000,
		JSON:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user prompt", got.Messages[1].Content)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.Equal(t, 2000, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &openAIClient{apiKey: "bad", baseURL: srv.URL, model: "m", http: srv.Client()}
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	require.Error(t, err)
}

func TestGoogleClient_Complete(t *testing.T) {
	var got googleGenerateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "gk", r.URL.Query().Get("key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer srv.Close()

	c := &googleClient{apiKey: "gk", model: "gemini-test", baseURL: srv.URL, http: srv.Client()}
	out, err := c.Complete(context.Background(), CompletionRequest{System: "sys", Prompt: "p", MaxTokens: 10, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "sys", got.SystemInstruction.Parts[0].Text)
	assert.Equal(t, 10, got.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"attestations\":[]}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c := newAnthropicClient("ak-test", "claude-test", 5*time.Second, option.WithBaseURL(srv.URL))
	out, err := c.Complete(context.Background(), CompletionRequest{System: "sys", Prompt: "p", Temperature: 0.1, MaxTokens: 4000})
	require.NoError(t, err)
	assert.Equal(t, `{"attestations":[]}`, out)

	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, 4000, got["max_tokens"])
	assert.NotNil(t, got["system"])
}
