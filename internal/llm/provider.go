package llm

import (
	"context"
	"os"
	"strings"
)

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
)

// ParseModelString parses a model string into provider and model name.
//
// Supported formats:
//
//	"gemini/gemini-2.5-flash"  → (gemini, "gemini-2.5-flash")
//	"ollama/llama3.2"          → (ollama, "llama3.2")
//	"openai/gpt-4o"            → (openai, "gpt-4o")
//	"claude-sonnet-4-20250514" → (anthropic, "claude-sonnet-4-20250514")
//	"gpt-4o"                   → (openai, "gpt-4o")
//	"llama3.2"                 → (ollama, "llama3.2") if OLLAMA_HOST set
//	"llama3.2"                 → (gemini, "llama3.2") fallback
func ParseModelString(model string) (Provider, string) {
	if i := strings.Index(model, "/"); i > 0 {
		prefix := strings.ToLower(model[:i])
		name := model[i+1:]
		switch prefix {
		case "gemini", "google":
			return ProviderGemini, name
		case "ollama":
			return ProviderOllama, name
		case "openai":
			return ProviderOpenAI, name
		case "anthropic":
			return ProviderAnthropic, name
		}
	}

	// No prefix: infer from model name patterns
	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "gemini") {
		return ProviderGemini, model
	}
	if strings.HasPrefix(lower, "claude") {
		return ProviderAnthropic, model
	}
	if strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") || strings.HasPrefix(lower, "o4") {
		return ProviderOpenAI, model
	}

	// Check env vars as a last resort
	if os.Getenv("OLLAMA_HOST") != "" {
		return ProviderOllama, model
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI, model
	}

	return ProviderGemini, model
}

// NewClientForModel creates the appropriate LLM client based on the model string.
// apiKey, when set, takes precedence over the provider's environment variable.
//
// Environment variables used:
//
//	GEMINI_API_KEY  Gemini API key
//	ANTHROPIC_API_KEY  Anthropic API key (read by SDK automatically)
//	OPENAI_API_KEY  OpenAI API key
//	OPENAI_BASE_URL  Custom OpenAI-compatible base URL
//	OLLAMA_HOST  Ollama server address (default: http://localhost:11434)
func NewClientForModel(ctx context.Context, model, apiKey string) (Client, string, error) {
	provider, modelName := ParseModelString(model)

	switch provider {
	case ProviderOllama:
		return NewOllamaClient(os.Getenv("OLLAMA_HOST")), modelName, nil

	case ProviderOpenAI:
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
			return NewOpenAICompatibleClient(baseURL, apiKey), modelName, nil
		}
		return NewOpenAIClient(apiKey), modelName, nil

	case ProviderAnthropic:
		if apiKey != "" {
			return NewAnthropicClientWithKey(apiKey), modelName, nil
		}
		return NewAnthropicClient(), modelName, nil

	default: // ProviderGemini
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		client, err := NewGeminiClient(ctx, apiKey)
		if err != nil {
			return nil, "", err
		}
		return client, modelName, nil
	}
}
