package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

// Slots available to summarize templates.
const (
	SlotIssueAreas = "issue_areas"
	SlotMinSize    = "min_size"
	SlotMaxSize    = "max_size"
	SlotText       = "text"
)

// SummarizeTemplate builds summarization prompts for a subset of the issue
// areas it defines.
type SummarizeTemplate struct {
	system     *Template
	human      *Template
	issueAreas map[string]string
}

// NewSummarizeTemplate parses the system and human templates. issueAreas
// maps issue names to their definitions.
func NewSummarizeTemplate(system, human string, issueAreas map[string]string) (*SummarizeTemplate, error) {
	if system == "" || human == "" {
		return nil, fmt.Errorf("summarize template needs system_template_string and human_template_string: %w", pkgllm.ErrConfiguration)
	}
	sys, err := Parse("system", system, SlotIssueAreas, SlotMinSize, SlotMaxSize)
	if err != nil {
		return nil, err
	}
	hum, err := Parse("human", human, SlotText)
	if err != nil {
		return nil, err
	}
	areas := make(map[string]string, len(issueAreas))
	for k, v := range issueAreas {
		areas[k] = v
	}
	return &SummarizeTemplate{system: sys, human: hum, issueAreas: areas}, nil
}

// Issues returns the defined issue names, sorted.
func (t *SummarizeTemplate) Issues() []string {
	return sortedKeys(t.issueAreas)
}

// IssueArea returns the definition of issue.
func (t *SummarizeTemplate) IssueArea(issue string) (string, bool) {
	d, ok := t.issueAreas[issue]
	return d, ok
}

// Build returns a system/user prompt asking for a summary of text covering
// issues in the given order, between minSize and maxSize words.
func (t *SummarizeTemplate) Build(text string, issues []string, minSize, maxSize int) (pkgllm.Prompt, error) {
	lines := make([]string, 0, len(issues))
	for i, issue := range issues {
		desc, ok := t.issueAreas[issue]
		if !ok {
			return nil, &UnknownIssueError{Issue: issue, Known: t.Issues()}
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, issue, desc))
	}

	system, err := t.system.Render(map[string]string{
		SlotIssueAreas: strings.Join(lines, "\n"),
		SlotMinSize:    strconv.Itoa(minSize),
		SlotMaxSize:    strconv.Itoa(maxSize),
	})
	if err != nil {
		return nil, err
	}
	human, err := t.human.Render(map[string]string{SlotText: text})
	if err != nil {
		return nil, err
	}
	return pkgllm.NewPrompt(system, nil, human), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
