package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"subsidyscout/internal/config"
)

// Provider represents a logical LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// ErrNotConfigured is returned when the selected provider lacks an API
// key or model.
var ErrNotConfigured = errors.New("llm provider is not fully configured")

// CompletionRequest is a single synchronous text completion.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks providers that support it to constrain output to a JSON
	// object. The answer must still be parsed defensively.
	JSON bool
}

// Completer is the reasoning oracle. Implementations return the raw text
// of the model's answer; callers are responsible for parsing it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Identity is implemented by completers that can report which provider
// and model answer their calls (used for logs and metrics).
type Identity interface {
	Provider() Provider
	Model() string
}

// NewClientFromConfig constructs a Completer based on global config and
// an optional provider override.
func NewClientFromConfig(cfg *config.Config, providerOverride string) (Completer, error) {
	providerName := cfg.LLM.DefaultProvider
	if providerOverride != "" {
		providerName = providerOverride
	}
	timeout := cfg.LLMTimeout()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch prov := Provider(strings.ToLower(providerName)); prov {
	case ProviderOpenAI:
		openaiCfg := cfg.LLM.OpenAI
		if openaiCfg.APIKey == "" || openaiCfg.Model == "" {
			return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		return &openAIClient{
			apiKey:  openaiCfg.APIKey,
			baseURL: openaiCfg.BaseURL,
			model:   openaiCfg.Model,
			http:    &http.Client{Timeout: timeout},
		}, nil
	case ProviderAnthropic:
		anthCfg := cfg.LLM.Anthropic
		if anthCfg.APIKey == "" || anthCfg.Model == "" {
			return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
		}
		return newAnthropicClient(anthCfg.APIKey, anthCfg.Model, timeout), nil
	case ProviderGoogle:
		googleCfg := cfg.LLM.Google
		if googleCfg.APIKey == "" || googleCfg.Model == "" {
			return nil, fmt.Errorf("google: %w", ErrNotConfigured)
		}
		return &googleClient{
			apiKey: googleCfg.APIKey,
			model:  googleCfg.Model,
			http:   &http.Client{Timeout: timeout},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", providerName)
	}
}

// Describe returns "provider/model" for completers that expose an
// Identity, or "custom" otherwise.
func Describe(c Completer) (provider, model string) {
	if id, ok := c.(Identity); ok {
		return string(id.Provider()), id.Model()
	}
	return "custom", ""
}
