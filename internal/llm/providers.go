package llm

import (
	"context"
	"fmt"

	"github.com/HerbHall/llmexperts/internal/llm/anthropic"
	"github.com/HerbHall/llmexperts/internal/llm/gemini"
	"github.com/HerbHall/llmexperts/internal/llm/ollama"
	"github.com/HerbHall/llmexperts/internal/llm/openai"
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
	"go.uber.org/zap"
)

// ProviderConfig holds the per-family provider sub-configs.
type ProviderConfig struct {
	OpenAI    openai.Config    `mapstructure:"openai"`
	Anthropic anthropic.Config `mapstructure:"anthropic"`
	Gemini    gemini.Config    `mapstructure:"gemini"`
	Ollama    ollama.Config    `mapstructure:"ollama"`
}

// DefaultProviderConfig returns the defaults of every binding.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		OpenAI:    openai.DefaultConfig(),
		Anthropic: anthropic.DefaultConfig(),
		Gemini:    gemini.DefaultConfig(),
		Ollama:    ollama.DefaultConfig(),
	}
}

// newProvider creates the binding for spec's family. A positive maxRetries
// overrides the binding's transient retry count.
func newProvider(ctx context.Context, spec ModelSpec, cfg ProviderConfig, maxRetries int, logger *zap.Logger) (pkgllm.Provider, error) {
	logger = logger.With(zap.String("provider", string(spec.Family)))

	switch spec.Family {
	case FamilyOpenAI:
		c := cfg.OpenAI
		c.Model = spec.Name
		if maxRetries > 0 {
			c.MaxRetries = maxRetries
		}
		return openai.New(c, logger)

	case FamilyAnthropic:
		c := cfg.Anthropic
		c.Model = spec.Name
		if maxRetries > 0 {
			c.MaxRetries = maxRetries
		}
		return anthropic.New(c, logger)

	case FamilyGemini:
		c := cfg.Gemini
		c.Model = spec.Name
		if maxRetries > 0 {
			c.MaxRetries = maxRetries
		}
		return gemini.New(ctx, c, logger)

	case FamilyOllama:
		c := cfg.Ollama
		c.Model = spec.Name
		if maxRetries > 0 {
			c.MaxRetries = maxRetries
		}
		return ollama.New(c, logger)

	default:
		return nil, fmt.Errorf("unknown provider family %q: %w", spec.Family, pkgllm.ErrConfiguration)
	}
}
