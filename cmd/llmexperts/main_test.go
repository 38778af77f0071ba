package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HerbHall/llmexperts/internal/testutil"
)

type env struct {
	dir    string
	config string
	db     string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OLLAMA_HOST"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	return env{
		dir:    dir,
		config: testutil.WriteFile(t, dir, "llmexperts.yaml", "logging:\n  level: error\n"),
		db:     filepath.Join(dir, "ledger.db"),
	}
}

// run executes the CLI with the environment's config and database.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))

	err := root.ExecuteContext(context.Background())
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return out.String(), err
}

func TestSummarize_DryRunAndRuns(t *testing.T) {
	e := newEnv(t)
	tmpl := testutil.WriteFile(t, e.dir, "prompts-summarize.yaml", testutil.SummarizeTemplateYAML)
	texts := testutil.WriteTexts(t, filepath.Join(e.dir, "in"), 2)
	outDir := filepath.Join(e.dir, "out")

	args := append([]string{"summarize", "--dry-run", "-i", "issue_1", "--template", tmpl, "-o", outDir}, texts...)
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("summarize error = %v", err)
	}

	first := filepath.Join(outDir, "summary_standard__gpt4o2024-08-06__issue_1__text_0.txt")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != first {
		t.Fatalf("output = %q, want two summary paths starting with %q", out, first)
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if want := "[MOCK SUMMARIZE][issue_1][gpt-4o-2024-08-06] Summarize: TEXT 0"; string(data) != want {
		t.Errorf("summary = %q, want %q", data, want)
	}

	// The second invocation reuses both summaries and records them too.
	if _, err := e.run(t, args...); err != nil {
		t.Fatalf("second summarize error = %v", err)
	}

	runs, err := e.run(t, "runs")
	if err != nil {
		t.Fatalf("runs error = %v", err)
	}
	if got := strings.Count(runs, "summary_standard__gpt4o2024-08-06__issue_1__text_"); got != 4 {
		t.Errorf("runs lists %d artifacts, want 4:\n%s", got, runs)
	}

	totals, err := e.run(t, "runs", "--totals")
	if err != nil {
		t.Fatalf("runs --totals error = %v", err)
	}
	fields := strings.Fields(strings.Split(strings.TrimSpace(totals), "\n")[1])
	if len(fields) != 5 || fields[0] != "gpt-4o-2024-08-06" || fields[1] != "4" || fields[2] != "2" {
		t.Errorf("totals row = %q", fields)
	}
}

func TestSummarize_ModelFlagOverridesConfig(t *testing.T) {
	e := newEnv(t)
	tmpl := testutil.WriteFile(t, e.dir, "prompts-summarize.yaml", testutil.SummarizeTemplateYAML)
	texts := testutil.WriteTexts(t, e.dir, 1)

	out, err := e.run(t, "--model", "claude-3-haiku-20240307", "summarize", "--dry-run", "--no-ledger",
		"-i", "issue_1,issue_2", "--max-size", "400", "--template", tmpl, "-o", e.dir, texts[0])
	if err != nil {
		t.Fatalf("summarize error = %v", err)
	}
	want := filepath.Join(e.dir, "summary_short__claude3haiku20240307__multi__text_0.txt")
	if strings.TrimSpace(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if _, err := os.Stat(e.db); !os.IsNotExist(err) {
		t.Errorf("ledger database created with --no-ledger: %v", err)
	}
}

func TestSummarize_Errors(t *testing.T) {
	e := newEnv(t)
	tmpl := testutil.WriteFile(t, e.dir, "prompts-summarize.yaml", testutil.SummarizeTemplateYAML)
	texts := testutil.WriteTexts(t, e.dir, 1)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing issues", []string{"summarize", "--template", tmpl, texts[0]}, `"issues" not set`},
		{"unknown issue", []string{"summarize", "--dry-run", "-i", "issue_9", "--template", tmpl, "-o", e.dir, texts[0]}, "unknown issue"},
		{"unknown model", []string{"--model", "gpt-5-turbo", "summarize", "-i", "issue_1", "--template", tmpl, "-o", e.dir, texts[0]}, "gpt-5-turbo"},
		{"missing template", []string{"summarize", "-i", "issue_1", "--template", filepath.Join(e.dir, "nope.yaml"), texts[0]}, "nope.yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.run(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestScore_DryRunJSON(t *testing.T) {
	e := newEnv(t)
	tmpl := testutil.WriteFile(t, e.dir, "prompts-analyze.yaml", testutil.ScaleTemplateYAML)
	summary := testutil.WriteFile(t, e.dir, "summary.txt", "A stored summary.")

	out, err := e.run(t, "score", "--dry-run", "-i", "issue_1", "--personas", "0", "--template", tmpl, "--format", "json", summary)
	if err != nil {
		t.Fatalf("score error = %v", err)
	}

	var rows []scoreRow
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var r scoreRow
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		rows = append(rows, r)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Persona != 0 || r.Encouragement != i || r.Issue != "issue_1" {
			t.Errorf("row %d = %+v", i, r)
		}
		if !strings.HasPrefix(r.Response, "[MOCK ANALYZE][issue_1][gpt-4o-2024-08-06] ") {
			t.Errorf("row %d response = %q", i, r.Response)
		}
	}
}

func TestScore_InvalidFormat(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "score", "-i", "issue_1", "--format", "xml", "x.txt"); err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("error = %v, want invalid format", err)
	}
}

func TestModels(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "models")
	if err != nil {
		t.Fatalf("models error = %v", err)
	}
	for _, want := range []string{"MODEL", "gpt-4o-2024-08-06", "claude-3-haiku-20240307", "gemini-1.5-pro-002", "llama3.1:8b"} {
		if !strings.Contains(out, want) {
			t.Errorf("models output missing %q:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "llmexperts dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("short\nsecond", 60); got != "short" {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine(strings.Repeat("x", 20), 10); got != "xxxxxxx..." {
		t.Errorf("firstLine() = %q", got)
	}
}
