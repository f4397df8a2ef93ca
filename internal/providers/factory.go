package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// Config selects and configures a provider.
type Config struct {
	Provider string // openai (default), anthropic, gemini or an OpenAI-compatible name
	APIKey   string
	Model    string
	BaseURL  string
}

type compatible struct {
	baseURL  string
	model    string
	localKey string // placeholder key for local servers; empty means a key is required
}

// OpenAI-compatible providers and their defaults.
var compatibleProviders = map[string]compatible{
	"openai":     {baseURL: OpenRouterBaseURL, model: "x-ai/grok-4.1-fast"},
	"openrouter": {baseURL: OpenRouterBaseURL, model: "x-ai/grok-4.1-fast"},
	"kimi":       {baseURL: "https://ark.ap-southeast.bytepluses.com/api/v3", model: "kimi-k2-250711"},
	"lmstudio":   {baseURL: "http://localhost:1234/v1", model: "local-model", localKey: "lm-studio"},
	"ollama":     {baseURL: "http://localhost:11434/v1", model: "llama3.1", localKey: "ollama"},
	"glm":        {baseURL: "https://open.bigmodel.cn/api/paas/v4", model: "glm-4-plus"},
	"minimax":    {baseURL: "https://api.minimax.chat/v1", model: "abab6.5s-chat"},
	"deepseek":   {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
	"groq":       {baseURL: "https://api.groq.com/openai/v1", model: "llama-3.1-70b-versatile"},
}

// Supported lists every provider name New accepts.
func Supported() []string {
	names := []string{"anthropic", "gemini"}
	for name := range compatibleProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-sonnet-latest"
	case "gemini":
		return "gemini-2.5-flash"
	}
	return compatibleProviders[provider].model
}

// New creates an engine.LLMClient for cfg and returns it with the resolved
// model name.
func New(ctx context.Context, cfg Config) (engine.LLMClient, string, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "openai"
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(provider)
	}

	switch provider {
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		client, err := NewAnthropicClient(cfg.APIKey, model)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, model, nil

	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.APIKey, model)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, model, nil
	}

	compat, ok := compatibleProviders[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: %s)", provider, strings.Join(Supported(), ", "))
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = compat.localKey
	}
	if apiKey == "" {
		return nil, "", fmt.Errorf("%s_API_KEY not set", strings.ToUpper(provider))
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = compat.baseURL
	}
	client, err := NewOpenAIClient(apiKey, model, baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, model, nil
}
