// Package metrics defines the Prometheus collectors for model invocations,
// token budgets and the summary cache.
package metrics

import (
	"time"

	"github.com/HerbHall/llmexperts/pkg/llm"
	"github.com/prometheus/client_golang/prometheus"
)

// Invocation outcomes used as the "outcome" label.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeDryRun = "dry_run"
)

// Cache results used as the "result" label.
const (
	CacheReused    = "reused"
	CacheGenerated = "generated"
)

// Collector groups the collectors. All methods are safe on a nil receiver
// so components can run without metrics.
type Collector struct {
	invocations      *prometheus.CounterVec
	invokeDuration   *prometheus.HistogramVec
	promptTokens     *prometheus.CounterVec
	completionTokens *prometheus.CounterVec
	budgetWaits      *prometheus.CounterVec
	budgetWaitTime   *prometheus.CounterVec
	rateLimitRetries *prometheus.CounterVec
	summaries        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_invocations_total",
				Help: "Total number of model invocations.",
			},
			[]string{"model", "outcome"},
		),
		invokeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmexperts_invoke_duration_seconds",
				Help:    "Model invocation duration in seconds, including budget waits.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		promptTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_prompt_tokens_total",
				Help: "Prompt tokens reported by providers.",
			},
			[]string{"model"},
		),
		completionTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_completion_tokens_total",
				Help: "Completion tokens reported by providers.",
			},
			[]string{"model"},
		),
		budgetWaits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_budget_waits_total",
				Help: "Times a call blocked on the per-minute token budget.",
			},
			[]string{"model"},
		),
		budgetWaitTime: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_budget_wait_seconds_total",
				Help: "Seconds spent blocked on the per-minute token budget.",
			},
			[]string{"model"},
		),
		rateLimitRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_rate_limit_retries_total",
				Help: "Calls retried after a provider rate-limit error.",
			},
			[]string{"model"},
		),
		summaries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmexperts_summaries_total",
				Help: "Summary requests by cache result.",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			c.invocations,
			c.invokeDuration,
			c.promptTokens,
			c.completionTokens,
			c.budgetWaits,
			c.budgetWaitTime,
			c.rateLimitRetries,
			c.summaries,
		)
	}
	return c
}

// ObserveInvoke records one invocation and its reported usage.
func (c *Collector) ObserveInvoke(model, outcome string, d time.Duration, usage llm.Usage) {
	if c == nil {
		return
	}
	c.invocations.WithLabelValues(model, outcome).Inc()
	if outcome == OutcomeDryRun {
		return
	}
	c.invokeDuration.WithLabelValues(model).Observe(d.Seconds())
	if usage.PromptTokens > 0 {
		c.promptTokens.WithLabelValues(model).Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		c.completionTokens.WithLabelValues(model).Add(float64(usage.CompletionTokens))
	}
}

// ObserveBudgetWait records a block on the token budget.
func (c *Collector) ObserveBudgetWait(model string, d time.Duration) {
	if c == nil {
		return
	}
	c.budgetWaits.WithLabelValues(model).Inc()
	c.budgetWaitTime.WithLabelValues(model).Add(d.Seconds())
}

// ObserveRateLimitRetry records a retry after a provider rate-limit error.
func (c *Collector) ObserveRateLimitRetry(model string) {
	if c == nil {
		return
	}
	c.rateLimitRetries.WithLabelValues(model).Inc()
}

// ObserveSummary records whether a summary was reused or generated.
func (c *Collector) ObserveSummary(result string) {
	if c == nil {
		return
	}
	c.summaries.WithLabelValues(result).Inc()
}
