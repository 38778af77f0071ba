package llm

import (
	"errors"
	"testing"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

func TestDefaultRegistry_Limits(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		model  string
		family Family
		limit  int
	}{
		{"gpt-4o-2024-08-06", FamilyOpenAI, 800000},
		{"gpt-4o-mini", FamilyOpenAI, DefaultTokensPerMinute},
		{"claude-3-5-sonnet-20241022", FamilyAnthropic, DefaultTokensPerMinute},
		{"claude-3-5-sonnet-20240620", FamilyAnthropic, 400000},
		{"claude-3-opus-20240229", FamilyAnthropic, 80000},
		{"claude-3-sonnet-20240229", FamilyAnthropic, 160000},
		{"claude-3-haiku-20240307", FamilyAnthropic, 200000},
		{"gemini-1.5-pro-002", FamilyGemini, DefaultTokensPerMinute},
		{"llama3.1:8b", FamilyOllama, DefaultTokensPerMinute},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			spec, err := r.Lookup(tc.model)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if spec.Family != tc.family {
				t.Errorf("Family = %q, want %q", spec.Family, tc.family)
			}
			if got := spec.TokenLimit(); got != tc.limit {
				t.Errorf("TokenLimit() = %d, want %d", got, tc.limit)
			}
		})
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := NewRegistry(ModelSpec{Name: "b", Family: FamilyOllama}, ModelSpec{Name: "a", Family: FamilyOpenAI})
	_, err := r.Lookup("c")

	var ume *UnsupportedModelError
	if !errors.As(err, &ume) {
		t.Fatalf("Lookup() error = %v, want *UnsupportedModelError", err)
	}
	if len(ume.Known) != 2 || ume.Known[0] != "a" || ume.Known[1] != "b" {
		t.Errorf("Known = %v, want [a b]", ume.Known)
	}
	if !pkgllm.IsConfigurationError(err) {
		t.Error("IsConfigurationError() = false, want true")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry(ModelSpec{Name: "m", Family: FamilyOpenAI, TokensPerMinute: 10})
	r.Register(ModelSpec{Name: "m", Family: FamilyOpenAI, TokensPerMinute: 20})

	specs := r.Specs()
	if len(specs) != 1 || specs[0].TokenLimit() != 20 {
		t.Errorf("Specs() = %+v, want single spec with limit 20", specs)
	}
}

func TestFamily_SupportsProbabilities(t *testing.T) {
	for _, f := range []Family{FamilyAnthropic, FamilyGemini, FamilyOllama} {
		if f.SupportsProbabilities() {
			t.Errorf("%s.SupportsProbabilities() = true, want false", f)
		}
	}
	if !FamilyOpenAI.SupportsProbabilities() {
		t.Error("openai.SupportsProbabilities() = false, want true")
	}
}
