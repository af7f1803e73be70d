package llm

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds LLM client configuration.
type Config struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string // Required: API key for the provider
	BaseURL   string // Optional: custom API endpoint
	Model     string // Model name (e.g., "gpt-4o-mini", "claude-sonnet-4-5-20250514")
	MaxTokens int    // Default completion budget when a request does not set one
}

// Client generates a single completion for a system/user prompt pair.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Request contains the prompts and decoding controls for one completion.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string   // Optional: name for providers that pin replies to a JSON schema
	Schema       any      // Optional: JSON schema; providers without schema support ignore it
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
}

// New creates a Client for the configured provider.
// It selects the appropriate provider based on cfg.Provider ("openai" or "anthropic").
// Defaults to OpenAI if no provider is specified.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// GenerateSchema generates a strict JSON schema from a Go type, for
// providers that support schema-pinned responses.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Temp is a helper to pass a literal temperature in a Request.
func Temp(t float64) *float64 {
	return &t
}
