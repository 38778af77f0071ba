// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/llmexperts/internal/store"
	"github.com/HerbHall/llmexperts/internal/summarize"
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

// SummarizeTemplateYAML is a minimal summarize template with two issues.
const SummarizeTemplateYAML = `system_template_string: "SUMMARY {issue_areas} IN {min_size} - {max_size} words.\n"
human_template_string: "Summarize: {text}"
issue_areas:
  issue_1: "Definition of the first issue area."
  issue_2: "Definition of the second issue area."
`

// ScaleTemplateYAML is a scale template with three personas, three
// encouragements and two examples for issue_2.
const ScaleTemplateYAML = `system_template_string: "{persona} {encouragement}\n\n{policy_scale}\n"
human_template_string: "Analyze the following political text:\n\n{text}\n"
policy_scales:
  issue_1: "Score issue 1 from 0 to 10."
  issue_2: "Score issue 2 from 0 to 10."
personas: ["Persona A.", "Persona B.", "Persona C."]
encouragements: ["Encouragement A.", "Encouragement B.", "Encouragement C."]
examples:
  issue_2:
    - summary: "Example one."
      score: 2
    - summary: "Example two."
      score: 7
`

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteTexts writes text_0.txt .. text_{n-1}.txt containing "TEXT i" and
// returns their paths.
func WriteTexts(t testing.TB, dir string, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = WriteFile(t, dir, fmt.Sprintf("text_%d.txt", i), fmt.Sprintf("TEXT %d", i))
	}
	return paths
}

// NewStore opens a SQLite store in a temp dir, closed when the test ends.
func NewStore(t testing.TB) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "llmexperts.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewRecord returns a generated summarize record with sensible defaults.
// Override individual fields with opts.
func NewRecord(opts ...func(*summarize.Record)) summarize.Record {
	r := summarize.Record{
		RunID: uuid.NewString(),
		Artifact: summarize.ArtifactID{
			Tier:   summarize.TierStandard,
			Model:  "gpt-4o-2024-08-06",
			Issue:  "issue_1",
			Source: "text_0",
		},
		Responses: 1,
		Usage:     pkgllm.Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithModel sets the artifact model.
func WithModel(model string) func(*summarize.Record) {
	return func(r *summarize.Record) { r.Artifact.Model = model }
}

// WithSource sets the artifact source stem.
func WithSource(source string) func(*summarize.Record) {
	return func(r *summarize.Record) { r.Artifact.Source = source }
}

// Reused marks the record as a reused summary with no model calls.
func Reused() func(*summarize.Record) {
	return func(r *summarize.Record) {
		r.Reused = true
		r.Responses = 0
		r.Usage = pkgllm.Usage{}
	}
}

// WithUsage sets the record's token usage.
func WithUsage(prompt, completion int) func(*summarize.Record) {
	return func(r *summarize.Record) {
		r.Usage = pkgllm.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	}
}
