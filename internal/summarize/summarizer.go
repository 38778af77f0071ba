// Package summarize produces issue-focused summaries of long documents.
// Text longer than a model's context is split into chunks, each chunk is
// summarized, and the chunk summaries are summarized once more into the
// final result. Finished summaries are persisted under a name derived from
// their inputs so repeated runs can reuse them.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/HerbHall/llmexperts/internal/llm"
	"github.com/HerbHall/llmexperts/internal/metrics"
	"github.com/HerbHall/llmexperts/internal/prompt"
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
	"go.uber.org/zap"
)

// Defaults for TextOptions.
const (
	DefaultChunkSize       = 100000
	DefaultOverlap         = 2500
	DefaultMinSize         = 500
	DefaultMaxSize         = StandardMaxSize
	DefaultMaxTokensFactor = 1.0
)

// Invoker sends one prompt to a model.
type Invoker interface {
	Invoke(ctx context.Context, p pkgllm.Prompt, opts ...llm.InvokeOption) (*pkgllm.Response, error)
}

// ClientFactory creates the model client for one summarization.
type ClientFactory func(model string, opts llm.Options) (Invoker, error)

// NewLLMClient is the default ClientFactory.
func NewLLMClient(model string, opts llm.Options) (Invoker, error) {
	c, err := llm.New(model, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// TextOptions controls one summarization.
type TextOptions struct {
	Model string
	// ChunkSize enables splitting when positive. Values below 1 are a
	// fraction of the text length.
	ChunkSize       float64
	Overlap         int
	MinSize         int // Words.
	MaxSize         int // Words.
	MaxTokensFactor float64
	DryRun          bool
	// Debug logs every rendered prompt.
	Debug bool
}

// DefaultTextOptions returns the defaults for model.
func DefaultTextOptions(model string) TextOptions {
	return TextOptions{
		Model:           model,
		ChunkSize:       DefaultChunkSize,
		Overlap:         DefaultOverlap,
		MinSize:         DefaultMinSize,
		MaxSize:         DefaultMaxSize,
		MaxTokensFactor: DefaultMaxTokensFactor,
	}
}

// Config wires a Summarizer.
type Config struct {
	Splitter  Splitter      // Defaults to RecursiveSplitter.
	NewClient ClientFactory // Defaults to NewLLMClient.

	// Client is the base configuration of every model client; MaxTokens and
	// Temperature are set per summarization.
	Client   llm.Options
	Recorder Recorder
	Logger   *zap.Logger
	Metrics  *metrics.Collector
}

// Summarizer summarizes text with one summarize template.
type Summarizer struct {
	template  *prompt.SummarizeTemplate
	splitter  Splitter
	newClient ClientFactory
	base      llm.Options
	recorder  Recorder
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// New creates a Summarizer for tmpl.
func New(tmpl *prompt.SummarizeTemplate, cfg Config) *Summarizer {
	if cfg.Splitter == nil {
		cfg.Splitter = RecursiveSplitter{}
	}
	if cfg.NewClient == nil {
		cfg.NewClient = NewLLMClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Client.Logger == nil {
		cfg.Client.Logger = cfg.Logger
	}
	if cfg.Client.Metrics == nil {
		cfg.Client.Metrics = cfg.Metrics
	}
	return &Summarizer{
		template:  tmpl,
		splitter:  cfg.Splitter,
		newClient: cfg.NewClient,
		base:      cfg.Client,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger.Named("summarize"),
		metrics:   cfg.Metrics,
	}
}

// DryRunTag is the mock prefix of dry-run summaries.
func DryRunTag(issues []string, model string) string {
	return fmt.Sprintf("[MOCK SUMMARIZE][%s][%s]", strings.Join(issues, " "), model)
}

// SummarizeText summarizes text for issues. Chunks are summarized in order;
// when there is more than one, their summaries are joined with spaces and
// summarized again. Any model error is returned as is.
func (s *Summarizer) SummarizeText(ctx context.Context, text string, issues []string, opts TextOptions) (*Summary, error) {
	opts = withDefaults(opts)
	if len(issues) == 0 {
		return nil, fmt.Errorf("summarize: at least one issue is required")
	}

	chunks, err := s.chunk(text, opts)
	if err != nil {
		return nil, err
	}

	clientOpts := s.base
	clientOpts.MaxTokens = int(float64(opts.MaxSize) * opts.MaxTokensFactor)
	clientOpts.Temperature = 0
	client, err := s.newClient(opts.Model, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	var invokeOpts []llm.InvokeOption
	if opts.DryRun {
		invokeOpts = append(invokeOpts, llm.DryRun(DryRunTag(issues, opts.Model)))
	}

	log := s.logger.With(zap.String("model", opts.Model), zap.Strings("issues", issues))
	log.Info("summarizing", zap.Int("chunks", len(chunks)), zap.Bool("dry_run", opts.DryRun))

	responses := make([]*pkgllm.Response, 0, len(chunks)+1)
	for i, chunk := range chunks {
		resp, err := s.invoke(ctx, client, chunk, issues, opts, invokeOpts)
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d of %d: %w", i+1, len(chunks), err)
		}
		responses = append(responses, resp)
		log.Debug("chunk summarized", zap.Int("done", len(responses)), zap.Int("chunks", len(chunks)))
	}

	if len(responses) > 1 {
		log.Info("combining chunk summaries", zap.Int("chunks", len(responses)))
		parts := make([]string, len(responses))
		for i, r := range responses {
			parts[i] = r.Content
		}
		resp, err := s.invoke(ctx, client, strings.Join(parts, " "), issues, opts, invokeOpts)
		if err != nil {
			return nil, fmt.Errorf("combine %d chunk summaries: %w", len(parts), err)
		}
		responses = append(responses, resp)
	}

	summary := newSummary(responses)
	log.Info("summary complete", zap.Int("length", utf8.RuneCountInString(summary.FinalSummary)))
	return summary, nil
}

// SummarizeWithFallback first summarizes the whole text as one chunk. If
// that fails and opts permits chunking, it makes exactly one chunked
// attempt; otherwise the first error is returned.
func (s *Summarizer) SummarizeWithFallback(ctx context.Context, text string, issues []string, opts TextOptions) (*Summary, error) {
	whole := opts
	whole.ChunkSize = 0
	whole.Overlap = 0

	s.logger.Debug("trying to summarize without chunking", zap.String("model", opts.Model))
	summary, firstErr := s.SummarizeText(ctx, text, issues, whole)
	if firstErr == nil {
		return summary, nil
	}
	if opts.ChunkSize <= 0 || ctx.Err() != nil {
		return nil, firstErr
	}

	s.logger.Warn("model cannot summarize entire document; trying chunk summarization",
		zap.String("model", opts.Model),
		zap.Error(firstErr),
	)
	return s.SummarizeText(ctx, text, issues, opts)
}

func (s *Summarizer) invoke(ctx context.Context, client Invoker, text string, issues []string, opts TextOptions, invokeOpts []llm.InvokeOption) (*pkgllm.Response, error) {
	p, err := s.template.Build(text, issues, opts.MinSize, opts.MaxSize)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		s.logger.Debug("prompt", zap.String("system", p.System()), zap.String("human", p.LastHuman()))
	}
	return client.Invoke(ctx, p, invokeOpts...)
}

func (s *Summarizer) chunk(text string, opts TextOptions) ([]string, error) {
	if opts.ChunkSize <= 0 {
		return []string{text}, nil
	}
	size := int(opts.ChunkSize)
	if opts.ChunkSize < 1 {
		size = int(float64(utf8.RuneCountInString(text)) * opts.ChunkSize)
	}
	if size < 1 {
		return nil, fmt.Errorf("chunk size %g of a %d character text is empty: %w",
			opts.ChunkSize, utf8.RuneCountInString(text), pkgllm.ErrConfiguration)
	}
	chunks, err := s.splitter.Split(text, size, opts.Overlap)
	if err != nil {
		return nil, fmt.Errorf("split text into %d character chunks: %w", size, err)
	}
	return chunks, nil
}

func withDefaults(opts TextOptions) TextOptions {
	if opts.MinSize <= 0 {
		opts.MinSize = DefaultMinSize
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.MaxTokensFactor <= 0 {
		opts.MaxTokensFactor = DefaultMaxTokensFactor
	}
	return opts
}
