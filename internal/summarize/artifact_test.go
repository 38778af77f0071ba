package summarize

import (
	"encoding/json"
	"path/filepath"
	"testing"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

func TestEscapeModelName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gpt-4o-2024-08-06", "gpt4o2024-08-06"},
		{"gpt-4o", "gpt4o"},
		{"claude-3-5-sonnet-20241022", "claude35sonnet20241022"},
		{"gemini-1.5-pro-002", "gemini15pro002"},
		{"llama3.1:8b", "llama318b"},
		{"my_model", "mymodel"},
	}
	for _, tc := range tests {
		if got := EscapeModelName(tc.in); got != tc.want {
			t.Errorf("EscapeModelName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		maxSize int
		want    Tier
	}{
		{999, TierShort},
		{1000, TierStandard},
		{1001, TierLong},
		{400, TierShort},
	}
	for _, tc := range tests {
		if got := TierFor(tc.maxSize); got != tc.want {
			t.Errorf("TierFor(%d) = %q, want %q", tc.maxSize, got, tc.want)
		}
	}
}

func TestNewArtifactID(t *testing.T) {
	id, err := NewArtifactID(1000, "gpt-4o-2024-08-06", []string{"issue_1"}, "/data/in/text_0.txt")
	if err != nil {
		t.Fatalf("NewArtifactID() error = %v", err)
	}
	if got, want := id.SummaryFile(), "summary_standard__gpt4o2024-08-06__issue_1__text_0.txt"; got != want {
		t.Errorf("SummaryFile() = %q, want %q", got, want)
	}
	if got, want := id.LogFile(), "log_summary_standard__gpt4o2024-08-06__issue_1__text_0.json"; got != want {
		t.Errorf("LogFile() = %q, want %q", got, want)
	}

	multi, err := NewArtifactID(2000, "claude-3-haiku-20240307", []string{"a", "b"}, "report.v2.md")
	if err != nil {
		t.Fatalf("NewArtifactID() error = %v", err)
	}
	if got, want := multi.Name(), "summary_long__claude3haiku20240307__multi__report.v2"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}

	if _, err := NewArtifactID(1000, "m", nil, "x.txt"); err == nil {
		t.Error("expected error for empty issue list")
	}
}

func TestFileOptions_Paths(t *testing.T) {
	id := ArtifactID{Tier: TierShort, Model: "m", Issue: "i", Source: "s"}

	o := FileOptions{OutputDir: "out"}
	if sum, log := o.Paths(id); sum != filepath.Join("out", "summary_short__m__i__s.txt") || log != filepath.Join("out", "log_summary_short__m__i__s.json") {
		t.Errorf("Paths() = %q, %q", sum, log)
	}
	o.LogDir = "logs"
	if _, log := o.Paths(id); log != filepath.Join("logs", "log_summary_short__m__i__s.json") {
		t.Errorf("Paths() log = %q", log)
	}
}

func TestSummary_Dump(t *testing.T) {
	s := newSummary([]*pkgllm.Response{
		{Content: "a", Usage: pkgllm.Usage{PromptTokens: 3}},
		{Content: "b", Usage: pkgllm.Usage{PromptTokens: 4, CompletionTokens: 1}},
	})
	s.RunID = "run-1"

	data, err := s.Dump()
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["final_summary"] != "b" || got["run_id"] != "run-1" {
		t.Errorf("Dump() = %s", data)
	}
	if rs, ok := got["responses"].([]any); !ok || len(rs) != 2 {
		t.Errorf("responses = %v, want 2 entries", got["responses"])
	}
	if u := s.Usage(); u.PromptTokens != 7 || u.CompletionTokens != 1 {
		t.Errorf("Usage() = %+v", u)
	}
}
