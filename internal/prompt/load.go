package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeFile reads a YAML or JSON document at path into v, chosen by the
// file extension.
func decodeFile(path string, v any) error {
	ext := strings.ToLower(filepath.Ext(path))
	var unmarshal func([]byte, any) error
	switch ext {
	case ".yml", ".yaml":
		unmarshal = yaml.Unmarshal
	case ".json":
		unmarshal = json.Unmarshal
	default:
		return fmt.Errorf("load %s: extension %q: %w", path, ext, ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// summarizeDoc is the on-disk shape of a summarize template.
type summarizeDoc struct {
	System     string            `yaml:"system_template_string" json:"system_template_string"`
	Human      string            `yaml:"human_template_string" json:"human_template_string"`
	IssueAreas map[string]string `yaml:"issue_areas" json:"issue_areas"`
}

// scaleDoc is the on-disk shape of a scale template.
type scaleDoc struct {
	System         string               `yaml:"system_template_string" json:"system_template_string"`
	Human          string               `yaml:"human_template_string" json:"human_template_string"`
	AI             string               `yaml:"ai_template_string" json:"ai_template_string"`
	PolicyScales   map[string]string    `yaml:"policy_scales" json:"policy_scales"`
	Personas       []string             `yaml:"personas" json:"personas"`
	Encouragements []string             `yaml:"encouragements" json:"encouragements"`
	Examples       map[string][]Example `yaml:"examples" json:"examples"`
}

// LoadSummarizeTemplate reads a summarize template from a .yaml, .yml or
// .json file.
func LoadSummarizeTemplate(path string) (*SummarizeTemplate, error) {
	var doc summarizeDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	t, err := NewSummarizeTemplate(doc.System, doc.Human, doc.IssueAreas)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// LoadScaleTemplate reads a persona scale template from a .yaml, .yml or
// .json file.
func LoadScaleTemplate(path string) (*ScaleTemplate, error) {
	var doc scaleDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	t, err := NewScaleTemplate(ScaleConfig{
		System:         doc.System,
		Human:          doc.Human,
		AI:             doc.AI,
		PolicyScales:   doc.PolicyScales,
		Personas:       doc.Personas,
		Encouragements: doc.Encouragements,
		Examples:       doc.Examples,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}
