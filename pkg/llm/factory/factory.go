package factory

import (
	"fmt"
	"strings"

	"ai-ghostwriter-be/pkg/llm"
	"ai-ghostwriter-be/pkg/llm/anthropic"
	"ai-ghostwriter-be/pkg/llm/gemini"
	"ai-ghostwriter-be/pkg/llm/ollama"
	"ai-ghostwriter-be/pkg/llm/openai"
)

type Config struct {
	DefaultModel  string
	OllamaBaseURL string
	OpenAIKey     string
	OpenAIBaseURL string
	AnthropicKey  string
	GeminiKey     string
}

type route struct {
	prefix   string
	provider llm.LLMProvider
}

// Registry picks a provider from the leading part of a model identifier.
// Identifiers that match no prefix go to the fallback (Ollama).
type Registry struct {
	routes       []route
	fallback     llm.LLMProvider
	defaultModel string
}

func NewRegistry(fallback llm.LLMProvider, defaultModel string) *Registry {
	return &Registry{fallback: fallback, defaultModel: defaultModel}
}

// Register adds a provider for every model identifier starting with prefix.
// Longer prefixes win over shorter ones.
func (r *Registry) Register(prefix string, provider llm.LLMProvider) {
	r.routes = append(r.routes, route{prefix: prefix, provider: provider})
}

// Resolve returns the provider for model, and the model identifier to send it.
func (r *Registry) Resolve(model string) (llm.LLMProvider, string, error) {
	if model == "" {
		model = r.defaultModel
	}

	var best *route
	for i := range r.routes {
		rt := &r.routes[i]
		if strings.HasPrefix(model, rt.prefix) && (best == nil || len(rt.prefix) > len(best.prefix)) {
			best = rt
		}
	}
	if best != nil {
		return best.provider, model, nil
	}
	if r.fallback == nil {
		return nil, "", fmt.Errorf("no LLM provider for model %q", model)
	}
	return r.fallback, model, nil
}

func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// NewLLMRegistry wires every provider that has credentials.
func NewLLMRegistry(cfg Config) *Registry {
	reg := NewRegistry(ollama.NewOllamaProvider(cfg.OllamaBaseURL, cfg.DefaultModel), cfg.DefaultModel)

	if cfg.OpenAIKey != "" {
		p := openai.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.DefaultModel)
		for _, prefix := range []string{"gpt-", "o1", "o3", "o4", "chatgpt-"} {
			reg.Register(prefix, p)
		}
	}
	if cfg.AnthropicKey != "" {
		reg.Register("claude-", anthropic.NewAnthropicProvider(cfg.AnthropicKey, cfg.DefaultModel))
	}
	if cfg.GeminiKey != "" {
		reg.Register("gemini-", gemini.NewGeminiProvider(cfg.GeminiKey, cfg.DefaultModel))
	}
	return reg
}
