// Package llm wraps a single named model behind a client that enforces a
// per-minute prompt token budget, retries once on provider rate limits and
// supports a deterministic dry-run mode.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/llmexperts/internal/metrics"
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Defaults applied by New when the matching option is zero.
const (
	DefaultMaxTokens        = 1000
	DefaultBatchConcurrency = 4
	DefaultRateLimitBackoff = time.Minute
)

// Options configures a Client.
type Options struct {
	MaxTokens     int
	Temperature   float64
	MaxRetries    int  // Transient retries inside the provider binding.
	Probabilities bool // Request token log-probabilities where supported.

	Providers ProviderConfig
	// Provider replaces the family binding; used by tests and embedders.
	Provider pkgllm.Provider
	Registry *Registry

	Logger  *zap.Logger
	Metrics *metrics.Collector
	Clock   Clock

	BatchConcurrency int
	RateLimitBackoff time.Duration
}

// Client is a rate-limited handle on one model. It is safe for concurrent use.
type Client struct {
	spec    ModelSpec
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Collector
	clock   Clock
	budget  *budget
	limiter *rate.Limiter

	probabilities bool

	mu       sync.Mutex
	provider pkgllm.Provider
}

// New creates a client for model. Unknown models fail with an
// *UnsupportedModelError. The provider binding is created on the first
// real call so dry runs work without credentials.
func New(model string, opts Options) (*Client, error) {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	spec, err := opts.Registry.Lookup(model)
	if err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	if opts.RateLimitBackoff <= 0 {
		opts.RateLimitBackoff = DefaultRateLimitBackoff
	}

	logger := opts.Logger.Named("llm").With(zap.String("model", spec.Name))

	probabilities := opts.Probabilities
	if probabilities && !spec.Family.SupportsProbabilities() {
		logger.Warn("probabilities are not available for this model; ignoring",
			zap.String("family", string(spec.Family)),
		)
		probabilities = false
	}

	c := &Client{
		spec:          spec,
		opts:          opts,
		logger:        logger,
		metrics:       opts.Metrics,
		clock:         opts.Clock,
		budget:        newBudget(spec.TokenLimit(), BudgetWindow, opts.Clock),
		probabilities: probabilities,
		provider:      opts.Provider,
	}
	if spec.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(spec.RequestsPerMinute)/60.0), 1)
	}
	return c, nil
}

// Model returns the model name.
func (c *Client) Model() string { return c.spec.Name }

// Family returns the provider family serving the model.
func (c *Client) Family() Family { return c.spec.Family }

// TokenLimit returns the per-minute prompt token budget.
func (c *Client) TokenLimit() int { return c.spec.TokenLimit() }

// TokensUsed returns the prompt tokens counted in the current window.
func (c *Client) TokensUsed() int {
	used, _, _ := c.budget.snapshot()
	return used
}

// InvokeOption configures a single Invoke or Batch call.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	dryRun   bool
	tag      string
	override *string
}

// DryRun suppresses network calls and returns a mock response echoing the
// last user message behind tag. An empty tag echoes the message alone.
func DryRun(tag string) InvokeOption {
	return func(c *invokeConfig) {
		c.dryRun = true
		c.tag = tag
	}
}

// WithDryRunResponse sets the exact content of dry-run responses.
// It has no effect on real calls.
func WithDryRunResponse(content string) InvokeOption {
	return func(c *invokeConfig) { c.override = &content }
}

func applyInvokeOptions(opts []InvokeOption) invokeConfig {
	var cfg invokeConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Invoke sends prompt to the model. Real calls wait on the token budget,
// and a provider rate-limit error is retried once after RateLimitBackoff.
func (c *Client) Invoke(ctx context.Context, prompt pkgllm.Prompt, opts ...InvokeOption) (*pkgllm.Response, error) {
	cfg := applyInvokeOptions(opts)
	if cfg.dryRun {
		c.metrics.ObserveInvoke(c.spec.Name, metrics.OutcomeDryRun, 0, pkgllm.Usage{})
		return mockResponse(c.spec.Name, prompt, cfg.tag, cfg.override), nil
	}

	start := c.clock.Now()
	estimate := prompt.CharCount() / 4

	waited, err := c.budget.reserve(ctx, estimate)
	if err != nil {
		return nil, fmt.Errorf("wait for token budget: %w", err)
	}
	if waited > 0 {
		c.logger.Info("waited to stay under per-minute token limit",
			zap.Duration("waited", waited),
			zap.Int("token_limit", c.spec.TokenLimit()),
		)
		c.metrics.ObserveBudgetWait(c.spec.Name, waited)
	}

	resp, err := c.call(ctx, prompt)
	if pkgllm.IsRateLimitError(err) {
		c.logger.Warn("provider rate limit exceeded; retrying once",
			zap.Duration("backoff", c.opts.RateLimitBackoff),
			zap.Error(err),
		)
		c.metrics.ObserveRateLimitRetry(c.spec.Name)
		if sErr := c.clock.Sleep(ctx, c.opts.RateLimitBackoff); sErr != nil {
			c.budget.settle(estimate, 0)
			return nil, fmt.Errorf("wait after rate limit: %w", sErr)
		}
		resp, err = c.call(ctx, prompt)
	}

	if err != nil {
		c.budget.settle(estimate, 0)
		c.metrics.ObserveInvoke(c.spec.Name, metrics.OutcomeError, c.clock.Now().Sub(start), pkgllm.Usage{})
		return nil, fmt.Errorf("invoke %s: %w", c.spec.Name, err)
	}

	c.budget.settle(estimate, resp.Usage.PromptTokens)
	c.metrics.ObserveInvoke(c.spec.Name, metrics.OutcomeOK, c.clock.Now().Sub(start), resp.Usage)
	return resp, nil
}

// Batch sends every prompt and returns responses in input order. Dry runs
// map the mock over each prompt. Real batches use the provider's native
// batch support when present and otherwise fan out with bounded
// concurrency. Batches do not wait on the token budget.
func (c *Client) Batch(ctx context.Context, prompts []pkgllm.Prompt, opts ...InvokeOption) ([]*pkgllm.Response, error) {
	cfg := applyInvokeOptions(opts)
	if cfg.dryRun {
		out := make([]*pkgllm.Response, len(prompts))
		for i, p := range prompts {
			c.metrics.ObserveInvoke(c.spec.Name, metrics.OutcomeDryRun, 0, pkgllm.Usage{})
			out[i] = mockResponse(c.spec.Name, p, cfg.tag, cfg.override)
		}
		return out, nil
	}
	if len(prompts) == 0 {
		return nil, nil
	}

	provider, err := c.providerFor(ctx)
	if err != nil {
		return nil, err
	}

	if b, ok := provider.(pkgllm.Batcher); ok {
		out, err := b.ChatBatch(ctx, prompts, c.callOptions()...)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", c.spec.Name, err)
		}
		for _, r := range out {
			c.budget.record(r.Usage.PromptTokens)
		}
		return out, nil
	}

	out := make([]*pkgllm.Response, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.BatchConcurrency)
	for i, p := range prompts {
		g.Go(func() error {
			resp, err := c.call(gctx, p)
			if err != nil {
				return fmt.Errorf("batch %s item %d: %w", c.spec.Name, i, err)
			}
			c.budget.record(resp.Usage.PromptTokens)
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks provider reachability when the binding supports it.
func (c *Client) Health(ctx context.Context) error {
	provider, err := c.providerFor(ctx)
	if err != nil {
		return err
	}
	hr, ok := provider.(pkgllm.HealthReporter)
	if !ok {
		return nil
	}
	return hr.Heartbeat(ctx)
}

func (c *Client) call(ctx context.Context, prompt pkgllm.Prompt) (*pkgllm.Response, error) {
	provider, err := c.providerFor(ctx)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for request limit: %w", err)
		}
	}
	resp, err := provider.Chat(ctx, prompt, c.callOptions()...)
	if err != nil {
		return nil, err
	}
	if resp.Model == "" {
		resp.Model = c.spec.Name
	}
	return resp, nil
}

func (c *Client) callOptions() []pkgllm.CallOption {
	return []pkgllm.CallOption{
		pkgllm.WithModel(c.spec.Name),
		pkgllm.WithTemperature(c.opts.Temperature),
		pkgllm.WithMaxTokens(c.opts.MaxTokens),
		pkgllm.WithLogprobs(c.probabilities),
	}
}

// providerFor returns the binding, creating it on first use.
func (c *Client) providerFor(ctx context.Context) (pkgllm.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}

	p, err := newProvider(ctx, c.spec, c.opts.Providers, c.opts.MaxRetries, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", c.spec.Family, err)
	}
	c.provider = p
	c.logger.Debug("provider initialized", zap.String("family", string(c.spec.Family)))
	return p, nil
}
