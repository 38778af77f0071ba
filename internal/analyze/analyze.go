// Package analyze scores stored summaries by running every persona and
// encouragement variant of a scale template through a model.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/HerbHall/llmexperts/internal/llm"
	"github.com/HerbHall/llmexperts/internal/prompt"
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
	"go.uber.org/zap"
)

// DefaultMaxTokens bounds score replies.
const DefaultMaxTokens = 256

// Batcher sends prompts to a model and returns responses in input order.
type Batcher interface {
	Batch(ctx context.Context, prompts []pkgllm.Prompt, opts ...llm.InvokeOption) ([]*pkgllm.Response, error)
}

// ClientFactory creates the model client for one Score call.
type ClientFactory func(model string, opts llm.Options) (Batcher, error)

// NewLLMClient is the default ClientFactory.
func NewLLMClient(model string, opts llm.Options) (Batcher, error) {
	c, err := llm.New(model, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Options controls one Score call. Nil selectors pick every persona or
// encouragement.
type Options struct {
	Model          string
	UseExamples    bool
	Personas       []int
	Encouragements []int
	MaxTokens      int
	Probabilities  bool
	DryRun         bool
}

// Result pairs a variant with the model's reply.
type Result struct {
	Issue    string
	Variant  prompt.Variant
	Response *pkgllm.Response
}

// Config wires an Analyzer.
type Config struct {
	NewClient ClientFactory // Defaults to NewLLMClient.
	Client    llm.Options   // Base options of every model client.
	Logger    *zap.Logger
}

// Analyzer scores text with one scale template.
type Analyzer struct {
	template  *prompt.ScaleTemplate
	newClient ClientFactory
	base      llm.Options
	logger    *zap.Logger
}

// New creates an Analyzer for tmpl.
func New(tmpl *prompt.ScaleTemplate, cfg Config) *Analyzer {
	if cfg.NewClient == nil {
		cfg.NewClient = NewLLMClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Client.Logger == nil {
		cfg.Client.Logger = cfg.Logger
	}
	return &Analyzer{
		template:  tmpl,
		newClient: cfg.NewClient,
		base:      cfg.Client,
		logger:    cfg.Logger.Named("analyze"),
	}
}

// DryRunTag is the mock prefix of dry-run scores.
func DryRunTag(issue, model string) string {
	return fmt.Sprintf("[MOCK ANALYZE][%s][%s]", issue, model)
}

// Score builds the variants of text for each issue and runs them as one
// batch per issue. Results follow issue order, then variant order.
func (a *Analyzer) Score(ctx context.Context, text string, issues []string, opts Options) ([]Result, error) {
	if len(issues) == 0 {
		return nil, fmt.Errorf("analyze: at least one issue is required")
	}

	// Build every prompt before the first model call so selector and issue
	// errors surface without spending tokens.
	variants := make([][]prompt.Variant, len(issues))
	for i, issue := range issues {
		vs, err := a.template.Build(text, issue, prompt.BuildOptions{
			UseExamples:    opts.UseExamples,
			Personas:       opts.Personas,
			Encouragements: opts.Encouragements,
		})
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", issue, err)
		}
		variants[i] = vs
	}

	clientOpts := a.base
	clientOpts.MaxTokens = opts.MaxTokens
	if clientOpts.MaxTokens <= 0 {
		clientOpts.MaxTokens = DefaultMaxTokens
	}
	clientOpts.Temperature = 0
	clientOpts.Probabilities = opts.Probabilities
	client, err := a.newClient(opts.Model, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var results []Result
	for i, issue := range issues {
		prompts := make([]pkgllm.Prompt, len(variants[i]))
		for j, v := range variants[i] {
			prompts[j] = v.Prompt
		}

		var invokeOpts []llm.InvokeOption
		if opts.DryRun {
			invokeOpts = append(invokeOpts, llm.DryRun(DryRunTag(issue, opts.Model)))
		}

		a.logger.Info("scoring",
			zap.String("model", opts.Model),
			zap.String("issue", issue),
			zap.Int("variants", len(prompts)),
			zap.Bool("dry_run", opts.DryRun),
		)
		responses, err := client.Batch(ctx, prompts, invokeOpts...)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", issue, err)
		}
		if len(responses) != len(prompts) {
			return nil, fmt.Errorf("analyze %s: got %d responses for %d prompts", issue, len(responses), len(prompts))
		}
		for j, resp := range responses {
			results = append(results, Result{Issue: issue, Variant: variants[i][j], Response: resp})
		}
	}
	return results, nil
}

// ScoreFile scores the contents of a stored summary.
func (a *Analyzer) ScoreFile(ctx context.Context, path string, issues []string, opts Options) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	return a.Score(ctx, string(data), issues, opts)
}

// ErrNoScore is returned by ParseScore when a reply holds no integer.
var ErrNoScore = errors.New("no score in response")

var firstInt = regexp.MustCompile(`-?\d+`)

// ParseScore returns the first integer in content.
func ParseScore(content string) (int, error) {
	m := firstInt.FindString(content)
	if m == "" {
		return 0, ErrNoScore
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", m, err)
	}
	return n, nil
}
