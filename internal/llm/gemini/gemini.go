// Package gemini binds the Google Gemini API to llm.Provider through the
// official genai client.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/HerbHall/llmexperts/pkg/llm"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Compile-time interface guards.
var (
	_ llm.Provider       = (*Provider)(nil)
	_ llm.HealthReporter = (*Provider)(nil)
)

// Provider implements llm.Provider for Gemini.
type Provider struct {
	client *genai.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Gemini provider on the Gemini API backend.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{client: client, cfg: cfg, logger: logger}, nil
}

// Generate creates a completion from a single prompt.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.CallOption) (*llm.Response, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// Chat creates a completion from a conversation history. System messages
// become the system instruction and assistant turns use the "model" role.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	cfg := llm.ApplyOptions(opts...)

	model := cfg.Model
	if model == "" {
		model = p.cfg.Model
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(contents) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, "at least one non-system message is required", nil)
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(cfg.MaxTokens)
	}
	if len(system) > 0 {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	var resp *genai.GenerateContentResponse
	err := llm.RetryTransient(ctx, p.cfg.MaxRetries, 0, func(ctx context.Context) error {
		var err error
		resp, err = p.client.Models.GenerateContent(ctx, model, contents, gc)
		return mapError(err)
	})
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{"model_version": resp.ModelVersion}
	done := true
	if len(resp.Candidates) > 0 {
		reason := resp.Candidates[0].FinishReason
		metadata["finish_reason"] = string(reason)
		done = reason != genai.FinishReasonMaxTokens
	}
	if resp.PromptFeedback != nil {
		metadata["prompt_feedback"] = string(resp.PromptFeedback.BlockReason)
	}

	var usage llm.Usage
	if u := resp.UsageMetadata; u != nil {
		usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	respModel := resp.ModelVersion
	if respModel == "" {
		respModel = model
	}

	return &llm.Response{
		Content:  resp.Text(),
		Model:    respModel,
		Usage:    usage,
		Metadata: metadata,
		Done:     done,
	}, nil
}

// Heartbeat checks whether the Gemini API is reachable by listing models.
func (p *Provider) Heartbeat(ctx context.Context) error {
	_, err := p.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	return mapError(err)
}

// ListModels returns the model names visible to the API key, without the
// "models/" resource prefix.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}

	names := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}
