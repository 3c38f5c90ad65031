// Package llm provides the answer oracles the chat router can delegate to.
// Exactly one provider is active at a time, selected by configuration.
package llm

import (
	"context"
	"fmt"

	"github.com/tmakino/ledgerlens/internal/config"
)

// Oracle generates a free-text answer from a fully assembled prompt.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider, e.g. "gemini". Used in fallback messages
	// so the user knows which backend failed.
	Name() string
}

// New constructs the configured oracle. Provider "none" returns nil; the
// router then answers extractively without delegating.
func New(cfg config.LLMConfig) (Oracle, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		return NewGemini(cfg.Gemini)
	case "openai":
		return NewOpenAI(cfg.OpenAI)
	case "ollama":
		return NewOllama(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
