package providers

import (
	"context"
	"fmt"

	"github.com/casapress/casapress/core/config"
)

// TextProvider abstracts the model vendor behind a single completion call.
// Implementations must be safe for concurrent use.
type TextProvider interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// NewFromConfig picks the provider named in configuration.
func NewFromConfig(cfg *config.Config) (TextProvider, error) {
	switch cfg.Generator.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.APIKeys.OpenAI, cfg.Generator.Model), nil
	case "gemini":
		return NewGeminiProvider(cfg.APIKeys.Gemini, cfg.Generator.Model), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}
