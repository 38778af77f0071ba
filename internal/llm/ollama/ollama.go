package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/HerbHall/llmexperts/pkg/llm"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ llm.Provider       = (*Provider)(nil)
	_ llm.HealthReporter = (*Provider)(nil)
)

// Provider implements llm.Provider for a local Ollama server using the
// official API client.
type Provider struct {
	client *api.Client
	cfg    Config
	logger *zap.Logger
}

// New creates an Ollama provider. It does not verify connectivity;
// call Heartbeat explicitly if you need an early health check.
// A URL without a scheme, as OLLAMA_HOST is often set, defaults to http.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	raw := strings.TrimRight(cfg.URL, "/")
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", cfg.URL, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Generate creates a completion from a single prompt.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.CallOption) (*llm.Response, error) {
	cfg := llm.ApplyOptions(opts...)

	model := cfg.Model
	if model == "" {
		model = p.cfg.Model
	}

	req := &api.GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Options: buildOptions(cfg),
	}
	if cfg.StreamFunc == nil {
		noStream := false
		req.Stream = &noStream
	}

	var content strings.Builder
	var final api.GenerateResponse
	err := llm.RetryTransient(ctx, p.cfg.MaxRetries, 0, func(ctx context.Context) error {
		content.Reset()
		err := p.client.Generate(ctx, req, func(chunk api.GenerateResponse) error {
			if chunk.Response != "" {
				content.WriteString(chunk.Response)
				if cfg.StreamFunc != nil {
					if err := cfg.StreamFunc(ctx, []byte(chunk.Response)); err != nil {
						return err
					}
				}
			}
			if chunk.Done {
				final = chunk
			}
			return nil
		})
		return mapError(err)
	})
	if err != nil {
		return nil, err
	}

	return &llm.Response{
		Content:  content.String(),
		Model:    model,
		Usage:    usageFromMetrics(final.Metrics),
		Metadata: map[string]any{"model": final.Model, "done_reason": final.DoneReason},
		Done:     final.Done,
	}, nil
}

// Chat creates a completion from a conversation history.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	cfg := llm.ApplyOptions(opts...)

	model := cfg.Model
	if model == "" {
		model = p.cfg.Model
	}

	apiMessages := make([]api.Message, len(messages))
	for i, m := range messages {
		apiMessages[i] = api.Message{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: apiMessages,
		Options:  buildOptions(cfg),
	}
	if cfg.StreamFunc == nil {
		noStream := false
		req.Stream = &noStream
	}

	var content strings.Builder
	var final api.ChatResponse
	err := llm.RetryTransient(ctx, p.cfg.MaxRetries, 0, func(ctx context.Context) error {
		content.Reset()
		err := p.client.Chat(ctx, req, func(chunk api.ChatResponse) error {
			if chunk.Message.Content != "" {
				content.WriteString(chunk.Message.Content)
				if cfg.StreamFunc != nil {
					if err := cfg.StreamFunc(ctx, []byte(chunk.Message.Content)); err != nil {
						return err
					}
				}
			}
			if chunk.Done {
				final = chunk
			}
			return nil
		})
		return mapError(err)
	})
	if err != nil {
		return nil, err
	}

	return &llm.Response{
		Content:  content.String(),
		Model:    model,
		Usage:    usageFromMetrics(final.Metrics),
		Metadata: map[string]any{"model": final.Model, "done_reason": final.DoneReason},
		Done:     final.Done,
	}, nil
}

// Heartbeat checks whether the Ollama server is reachable.
func (p *Provider) Heartbeat(ctx context.Context) error {
	return mapError(p.client.Heartbeat(ctx))
}

// ListModels returns the names of locally available models.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	names := make([]string, len(resp.Models))
	for i := range resp.Models {
		names[i] = resp.Models[i].Name
	}
	return names, nil
}

func usageFromMetrics(m api.Metrics) llm.Usage {
	return llm.Usage{
		PromptTokens:     m.PromptEvalCount,
		CompletionTokens: m.EvalCount,
		TotalTokens:      m.PromptEvalCount + m.EvalCount,
	}
}

// buildOptions converts CallConfig fields into Ollama's Options map.
func buildOptions(cfg llm.CallConfig) map[string]any {
	opts := map[string]any{
		"temperature": cfg.Temperature,
	}
	if cfg.MaxTokens > 0 {
		opts["num_predict"] = cfg.MaxTokens
	}
	return opts
}
