package llm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

// Family identifies which provider binding serves a model.
type Family string

// Provider families.
const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyGemini    Family = "gemini"
	FamilyOllama    Family = "ollama"
)

// SupportsProbabilities reports whether the family can return token
// log-probabilities.
func (f Family) SupportsProbabilities() bool {
	return f == FamilyOpenAI
}

// DefaultTokensPerMinute applies to models registered without a limit.
const DefaultTokensPerMinute = 800000

// BudgetWindow is the length of the token budget window.
const BudgetWindow = time.Minute

// ModelSpec describes one supported model.
type ModelSpec struct {
	Name              string
	Family            Family
	TokensPerMinute   int // 0 means DefaultTokensPerMinute.
	RequestsPerMinute int // 0 disables request pacing.
}

// TokenLimit returns the per-minute prompt token budget.
func (s ModelSpec) TokenLimit() int {
	if s.TokensPerMinute > 0 {
		return s.TokensPerMinute
	}
	return DefaultTokensPerMinute
}

// UnsupportedModelError is returned for model names missing from the registry.
type UnsupportedModelError struct {
	Model string
	Known []string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("model %q is not supported; known models: %s", e.Model, strings.Join(e.Known, ", "))
}

// Unwrap makes the error match pkgllm.ErrConfiguration.
func (e *UnsupportedModelError) Unwrap() error {
	return pkgllm.ErrConfiguration
}

// Registry maps model names to their specs.
type Registry struct {
	models map[string]ModelSpec
}

// NewRegistry creates a registry holding specs.
func NewRegistry(specs ...ModelSpec) *Registry {
	r := &Registry{models: make(map[string]ModelSpec, len(specs))}
	for _, s := range specs {
		r.Register(s)
	}
	return r
}

// DefaultRegistry returns the built-in model table.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ModelSpec{Name: "gpt-3.5-turbo", Family: FamilyOpenAI},
		ModelSpec{Name: "gpt-4", Family: FamilyOpenAI},
		ModelSpec{Name: "gpt-4o", Family: FamilyOpenAI},
		ModelSpec{Name: "gpt-4o-2024-08-06", Family: FamilyOpenAI, TokensPerMinute: 800000},
		ModelSpec{Name: "gpt-4o-mini", Family: FamilyOpenAI},

		ModelSpec{Name: "claude-3-5-sonnet-20241022", Family: FamilyAnthropic},
		ModelSpec{Name: "claude-3-5-sonnet-20240620", Family: FamilyAnthropic, TokensPerMinute: 400000},
		ModelSpec{Name: "claude-3-opus-20240229", Family: FamilyAnthropic, TokensPerMinute: 80000},
		ModelSpec{Name: "claude-3-sonnet-20240229", Family: FamilyAnthropic, TokensPerMinute: 160000},
		ModelSpec{Name: "claude-3-haiku-20240307", Family: FamilyAnthropic, TokensPerMinute: 200000},

		ModelSpec{Name: "gemini-1.5-pro-001", Family: FamilyGemini},
		ModelSpec{Name: "gemini-1.5-pro-002", Family: FamilyGemini},

		ModelSpec{Name: "llama3.1:8b", Family: FamilyOllama},
		ModelSpec{Name: "qwen2.5:32b", Family: FamilyOllama},
	)
}

// Register adds or replaces a model spec.
func (r *Registry) Register(s ModelSpec) {
	r.models[s.Name] = s
}

// Lookup returns the spec for name or an *UnsupportedModelError.
func (r *Registry) Lookup(name string) (ModelSpec, error) {
	s, ok := r.models[name]
	if !ok {
		return ModelSpec{}, &UnsupportedModelError{Model: name, Known: r.Names()}
	}
	return s, nil
}

// Names returns every registered model name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns every registered spec sorted by name.
func (r *Registry) Specs() []ModelSpec {
	names := r.Names()
	specs := make([]ModelSpec, len(names))
	for i, n := range names {
		specs[i] = r.models[n]
	}
	return specs
}
