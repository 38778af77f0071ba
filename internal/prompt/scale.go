package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
	"gopkg.in/yaml.v3"
)

// Slots available to scale templates.
const (
	SlotPersona       = "persona"
	SlotEncouragement = "encouragement"
	SlotPolicyScale   = "policy_scale"
	SlotScore         = "score"
)

// DefaultAITemplate renders an example's score on its own.
const DefaultAITemplate = "{score}"

// Score is an example score. Template files may write it as a number or a
// string; it is kept in its textual form.
type Score string

// UnmarshalYAML accepts any scalar.
func (s *Score) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: score must be a scalar", node.Line)
	}
	*s = Score(node.Value)
	return nil
}

// UnmarshalJSON accepts a JSON string or number.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("score must be a string or number: %w", err)
	}
	*s = Score(n.String())
	return nil
}

// Example is one few-shot exchange for an issue.
type Example struct {
	Summary string `yaml:"summary" json:"summary"`
	Score   Score  `yaml:"score" json:"score"`
}

// ScaleConfig holds the raw contents of a scale template.
type ScaleConfig struct {
	System         string
	Human          string
	AI             string // Defaults to DefaultAITemplate.
	PolicyScales   map[string]string
	Personas       []string
	Encouragements []string
	Examples       map[string][]Example
}

// ScaleTemplate expands one text and issue into persona x encouragement
// prompt variants.
type ScaleTemplate struct {
	system         *Template
	human          *Template
	ai             *Template
	policyScales   map[string]string
	personas       []string
	encouragements []string
	examples       map[string][]Example
}

// Variant is one persona and encouragement combination.
type Variant struct {
	Prompt             pkgllm.Prompt
	Persona            string
	Encouragement      string
	PersonaIndex       int
	EncouragementIndex int
}

// BuildOptions selects what ScaleTemplate.Build produces. A nil selector
// picks every entry in declared order; a non-nil one picks exactly the
// listed indices in the listed order.
type BuildOptions struct {
	UseExamples    bool
	Personas       []int
	Encouragements []int
}

// Select returns a selector for the given indices.
func Select(indices ...int) []int {
	return append([]int{}, indices...)
}

// NewScaleTemplate parses the templates in cfg.
func NewScaleTemplate(cfg ScaleConfig) (*ScaleTemplate, error) {
	if cfg.System == "" || cfg.Human == "" {
		return nil, fmt.Errorf("scale template needs system_template_string and human_template_string: %w", pkgllm.ErrConfiguration)
	}
	if cfg.AI == "" {
		cfg.AI = DefaultAITemplate
	}

	sys, err := Parse("system", cfg.System, SlotPersona, SlotEncouragement, SlotPolicyScale)
	if err != nil {
		return nil, err
	}
	hum, err := Parse("human", cfg.Human, SlotText)
	if err != nil {
		return nil, err
	}
	ai, err := Parse("ai", cfg.AI, SlotScore)
	if err != nil {
		return nil, err
	}

	t := &ScaleTemplate{
		system:         sys,
		human:          hum,
		ai:             ai,
		policyScales:   make(map[string]string, len(cfg.PolicyScales)),
		personas:       append([]string(nil), cfg.Personas...),
		encouragements: append([]string(nil), cfg.Encouragements...),
		examples:       make(map[string][]Example, len(cfg.Examples)),
	}
	for k, v := range cfg.PolicyScales {
		t.policyScales[k] = v
	}
	for k, v := range cfg.Examples {
		t.examples[k] = append([]Example(nil), v...)
	}
	return t, nil
}

// Personas returns the declared personas.
func (t *ScaleTemplate) Personas() []string { return append([]string(nil), t.personas...) }

// Encouragements returns the declared encouragements.
func (t *ScaleTemplate) Encouragements() []string {
	return append([]string(nil), t.encouragements...)
}

// Issues returns the issues that have a policy scale, sorted.
func (t *ScaleTemplate) Issues() []string { return sortedKeys(t.policyScales) }

// Examples returns the few-shot examples declared for issue.
func (t *ScaleTemplate) Examples(issue string) []Example {
	return append([]Example(nil), t.examples[issue]...)
}

// Build returns the variants for text scored on issue, persona outermost.
// Examples, when enabled, sit between the system message and the final
// user message and are the same in every variant.
func (t *ScaleTemplate) Build(text, issue string, opts BuildOptions) ([]Variant, error) {
	scale, ok := t.policyScales[issue]
	if !ok {
		return nil, &UnknownIssueError{Issue: issue, Known: t.Issues()}
	}
	personas, err := resolve("persona", opts.Personas, len(t.personas))
	if err != nil {
		return nil, err
	}
	encouragements, err := resolve("encouragement", opts.Encouragements, len(t.encouragements))
	if err != nil {
		return nil, err
	}

	var examples []pkgllm.Message
	if opts.UseExamples {
		examples, err = t.exampleMessages(issue)
		if err != nil {
			return nil, err
		}
	}

	human, err := t.human.Render(map[string]string{SlotText: text})
	if err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, len(personas)*len(encouragements))
	for _, pi := range personas {
		for _, ei := range encouragements {
			system, err := t.system.Render(map[string]string{
				SlotPersona:       t.personas[pi],
				SlotEncouragement: t.encouragements[ei],
				SlotPolicyScale:   scale,
			})
			if err != nil {
				return nil, err
			}
			variants = append(variants, Variant{
				Prompt:             pkgllm.NewPrompt(system, examples, human),
				Persona:            t.personas[pi],
				Encouragement:      t.encouragements[ei],
				PersonaIndex:       pi,
				EncouragementIndex: ei,
			})
		}
	}
	return variants, nil
}

func (t *ScaleTemplate) exampleMessages(issue string) ([]pkgllm.Message, error) {
	examples := t.examples[issue]
	msgs := make([]pkgllm.Message, 0, 2*len(examples))
	for _, ex := range examples {
		q, err := t.human.Render(map[string]string{SlotText: ex.Summary})
		if err != nil {
			return nil, err
		}
		a, err := t.ai.Render(map[string]string{SlotScore: string(ex.Score)})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs,
			pkgllm.Message{Role: pkgllm.RoleUser, Content: q},
			pkgllm.Message{Role: pkgllm.RoleAssistant, Content: a},
		)
	}
	return msgs, nil
}

// resolve expands a selector against a list of length n.
func resolve(kind string, sel []int, n int) ([]int, error) {
	if sel == nil {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range sel {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%s index %d with %d declared: %w", kind, i, n, ErrIndexOutOfRange)
		}
	}
	return sel, nil
}
