package prompt

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

const testText = "TEST TEXT"

func loadSummarize(t *testing.T, name string) *SummarizeTemplate {
	t.Helper()
	tmpl, err := LoadSummarizeTemplate(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadSummarizeTemplate(%s) error = %v", name, err)
	}
	return tmpl
}

func loadScale(t *testing.T, name string) *ScaleTemplate {
	t.Helper()
	tmpl, err := LoadScaleTemplate(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadScaleTemplate(%s) error = %v", name, err)
	}
	return tmpl
}

func TestSummarizeTemplate_Build(t *testing.T) {
	for _, file := range []string{"prompts-summarize.yaml", "prompts-summarize.json"} {
		t.Run(file, func(t *testing.T) {
			tmpl := loadSummarize(t, file)
			def, ok := tmpl.IssueArea("issue_1")
			if !ok {
				t.Fatal("issue_1 not defined")
			}

			p, err := tmpl.Build(testText, []string{"issue_1"}, 300, 400)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if err := p.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if want := fmt.Sprintf("SUMMARY 1. issue_1: %s IN 300 - 400 words.\n", def); p.System() != want {
				t.Errorf("system = %q, want %q", p.System(), want)
			}
			if want := "Summarize: " + testText; p.LastHuman() != want {
				t.Errorf("human = %q, want %q", p.LastHuman(), want)
			}
		})
	}
}

func TestSummarizeTemplate_BuildKeepsRequestedOrder(t *testing.T) {
	tmpl := loadSummarize(t, "prompts-summarize.yaml")
	d1, _ := tmpl.IssueArea("issue_1")
	d2, _ := tmpl.IssueArea("issue_2")

	p, err := tmpl.Build(testText, []string{"issue_2", "issue_1"}, 500, 1000)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := fmt.Sprintf("SUMMARY 1. issue_2: %s\n2. issue_1: %s IN 500 - 1000 words.\n", d2, d1)
	if p.System() != want {
		t.Errorf("system = %q, want %q", p.System(), want)
	}
}

func TestSummarizeTemplate_UnknownIssue(t *testing.T) {
	tmpl := loadSummarize(t, "prompts-summarize.yaml")
	_, err := tmpl.Build(testText, []string{"issue_1", "issue_9"}, 500, 1000)

	var uie *UnknownIssueError
	if !errors.As(err, &uie) || uie.Issue != "issue_9" {
		t.Fatalf("Build() error = %v, want UnknownIssueError for issue_9", err)
	}
	if !errors.Is(err, ErrUnknownIssue) || !errors.Is(err, pkgllm.ErrConfiguration) {
		t.Errorf("error %v should match ErrUnknownIssue and ErrConfiguration", err)
	}
}

func TestScaleTemplate_AllVariants(t *testing.T) {
	tmpl := loadScale(t, "prompts-analyze.yaml")
	personas, encouragements := tmpl.Personas(), tmpl.Encouragements()

	variants, err := tmpl.Build(testText, "issue_1", BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(variants) != len(personas)*len(encouragements) {
		t.Fatalf("len(variants) = %d, want %d", len(variants), len(personas)*len(encouragements))
	}

	scale := "Score issue 1 from 0 (left) to 10 (right)."
	i := 0
	for pi, persona := range personas {
		for ei, enc := range encouragements {
			v := variants[i]
			if v.PersonaIndex != pi || v.EncouragementIndex != ei {
				t.Errorf("variant %d indices = (%d,%d), want (%d,%d)", i, v.PersonaIndex, v.EncouragementIndex, pi, ei)
			}
			if want := fmt.Sprintf("%s %s\n\n%s\n", persona, enc, scale); v.Prompt.System() != want {
				t.Errorf("variant %d system = %q, want %q", i, v.Prompt.System(), want)
			}
			if want := "Analyze the following political text:\n\n" + testText + "\n"; v.Prompt.LastHuman() != want {
				t.Errorf("variant %d human = %q, want %q", i, v.Prompt.LastHuman(), want)
			}
			if len(v.Prompt) != 2 {
				t.Errorf("variant %d has %d messages, want 2", i, len(v.Prompt))
			}
			i++
		}
	}
}

func TestScaleTemplate_Selectors(t *testing.T) {
	tmpl := loadScale(t, "prompts-analyze.yaml")

	tests := []struct {
		name           string
		personas       []int
		encouragements []int
		want           [][2]int
	}{
		{"single", Select(0), Select(1), [][2]int{{0, 1}}},
		{"subset", Select(0, 1, 2), Select(0, 2), [][2]int{{0, 0}, {0, 2}, {1, 0}, {1, 2}, {2, 0}, {2, 2}}},
		{"selector order kept", Select(2, 0), Select(1), [][2]int{{2, 1}, {0, 1}}},
		{"persona only", Select(1), nil, [][2]int{{1, 0}, {1, 1}, {1, 2}}},
		{"empty selector", []int{}, nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			variants, err := tmpl.Build(testText, "issue_1", BuildOptions{Personas: tc.personas, Encouragements: tc.encouragements})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(variants) != len(tc.want) {
				t.Fatalf("len(variants) = %d, want %d", len(variants), len(tc.want))
			}
			for i, w := range tc.want {
				v := variants[i]
				if v.PersonaIndex != w[0] || v.EncouragementIndex != w[1] {
					t.Errorf("variant %d = (%d,%d), want (%d,%d)", i, v.PersonaIndex, v.EncouragementIndex, w[0], w[1])
				}
				if v.Persona != tmpl.Personas()[w[0]] || v.Encouragement != tmpl.Encouragements()[w[1]] {
					t.Errorf("variant %d texts do not match indices", i)
				}
			}
		})
	}
}

func TestScaleTemplate_IndexOutOfRange(t *testing.T) {
	tmpl := loadScale(t, "prompts-analyze.yaml")
	for _, opts := range []BuildOptions{
		{Personas: Select(3)},
		{Encouragements: Select(-1)},
	} {
		if _, err := tmpl.Build(testText, "issue_1", opts); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Build(%+v) error = %v, want ErrIndexOutOfRange", opts, err)
		}
	}
}

func TestScaleTemplate_UnknownIssue(t *testing.T) {
	tmpl := loadScale(t, "prompts-analyze.yaml")
	if _, err := tmpl.Build(testText, "issue_3", BuildOptions{}); !errors.Is(err, ErrUnknownIssue) {
		t.Errorf("Build() error = %v, want ErrUnknownIssue", err)
	}
}

func TestScaleTemplate_Examples(t *testing.T) {
	withExamples := loadScale(t, "prompts-analyze__examples.yaml")
	without := loadScale(t, "prompts-analyze.yaml")

	tests := []struct {
		name        string
		tmpl        *ScaleTemplate
		issue       string
		useExamples bool
		wantLen     int
	}{
		{"two examples", withExamples, "issue_2", true, 2*2 + 2},
		{"examples disabled", withExamples, "issue_2", false, 2},
		{"one example", withExamples, "issue_1", true, 2*1 + 2},
		{"no examples declared", without, "issue_2", true, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			variants, err := tc.tmpl.Build(testText, tc.issue, BuildOptions{UseExamples: tc.useExamples})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(variants) != 9 {
				t.Fatalf("len(variants) = %d, want 9", len(variants))
			}
			for i, v := range variants {
				if len(v.Prompt) != tc.wantLen {
					t.Errorf("variant %d has %d messages, want %d", i, len(v.Prompt), tc.wantLen)
				}
				if err := v.Prompt.Validate(); err != nil {
					t.Errorf("variant %d Validate() error = %v", i, err)
				}
			}
		})
	}
}

func TestScaleTemplate_ExampleRendering(t *testing.T) {
	tmpl := loadScale(t, "prompts-analyze__examples.yaml")
	variants, err := tmpl.Build(testText, "issue_2", BuildOptions{UseExamples: true, Personas: Select(0), Encouragements: Select(0)})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	p := variants[0].Prompt
	want := []pkgllm.Message{
		{Role: pkgllm.RoleUser, Content: "Analyze the following political text:\n\nExpand public healthcare.\n"},
		{Role: pkgllm.RoleAssistant, Content: "Score: 2"},
		{Role: pkgllm.RoleUser, Content: "Analyze the following political text:\n\nKeep the current system.\n"},
		{Role: pkgllm.RoleAssistant, Content: "Score: 5"},
	}
	for i, w := range want {
		if p[i+1] != w {
			t.Errorf("message %d = %+v, want %+v", i+1, p[i+1], w)
		}
	}
}

func TestLoadScaleTemplate_JSON(t *testing.T) {
	tmpl := loadScale(t, "prompts-analyze.json")
	variants, err := tmpl.Build("x", "issue_1", BuildOptions{UseExamples: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("len(variants) = %d, want 2", len(variants))
	}
	if got := variants[0].Prompt[2].Content; got != "7.5" {
		t.Errorf("default ai template rendered %q, want 7.5", got)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := LoadSummarizeTemplate(filepath.Join("testdata", "prompts.toml"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
	if !errors.Is(err, pkgllm.ErrConfiguration) {
		t.Error("ErrUnsupportedFormat should match ErrConfiguration")
	}
	if _, err := LoadScaleTemplate(filepath.Join("testdata", "prompts.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadSummarizeTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("missing file reported as unsupported format")
	}
}

func TestNewScaleTemplate_RejectsUndeclaredSlot(t *testing.T) {
	_, err := NewScaleTemplate(ScaleConfig{
		System: "{persona} {tone}",
		Human:  "{text}",
	})
	if !errors.Is(err, pkgllm.ErrConfiguration) {
		t.Errorf("error = %v, want configuration error", err)
	}
}
