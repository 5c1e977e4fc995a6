package model

import (
	"context"
	"fmt"
	"strings"

	"studydigest/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Completer sends a single user prompt to a language model and returns the
// completion text.
type Completer interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt, model string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt, model string) (string, error) {
	return f(ctx, prompt, model)
}

func NewCompleter(cfg config.LLMConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAICompleter(cfg.APIKey, cfg.BaseURL), nil
	case ProviderOllama:
		return NewOllamaCompleter(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
