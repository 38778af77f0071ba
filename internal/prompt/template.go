// Package prompt renders chat prompts from declarative template files.
//
// Templates use named {slot} placeholders. A literal brace is written as
// {{ or }}. Every slot a template references must be declared when the
// template is parsed, so a misspelled placeholder fails at load time.
package prompt

import (
	"fmt"
	"strings"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

// Template is a parsed message template.
type Template struct {
	name  string
	text  string
	parts []part
}

type part struct {
	literal string
	slot    string // Empty for literal parts.
}

// Parse parses text and checks that every placeholder names one of slots.
// Errors wrap pkgllm.ErrConfiguration.
func Parse(name, text string, slots ...string) (*Template, error) {
	declared := make(map[string]bool, len(slots))
	for _, s := range slots {
		declared[s] = true
	}

	t := &Template{name: name, text: text}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("template %s: unclosed '{' at offset %d: %w", name, i, pkgllm.ErrConfiguration)
			}
			slot := strings.TrimSpace(text[i+1 : i+1+end])
			if !validSlotName(slot) {
				return nil, fmt.Errorf("template %s: invalid placeholder %q at offset %d: %w", name, slot, i, pkgllm.ErrConfiguration)
			}
			if !declared[slot] {
				return nil, fmt.Errorf("template %s: undeclared slot %q (declared: %s): %w",
					name, slot, strings.Join(slots, ", "), pkgllm.ErrConfiguration)
			}
			flush()
			t.parts = append(t.parts, part{slot: slot})
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("template %s: unmatched '}' at offset %d: %w", name, i, pkgllm.ErrConfiguration)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

func validSlotName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Render substitutes values into the template. A referenced slot without a
// value is an error.
func (t *Template) Render(values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.text))
	for _, p := range t.parts {
		if p.slot == "" {
			b.WriteString(p.literal)
			continue
		}
		v, ok := values[p.slot]
		if !ok {
			return "", fmt.Errorf("template %s: no value for slot %q", t.name, p.slot)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Slots returns the distinct slots referenced by the template in order of
// first use.
func (t *Template) Slots() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range t.parts {
		if p.slot != "" && !seen[p.slot] {
			seen[p.slot] = true
			out = append(out, p.slot)
		}
	}
	return out
}

// Name returns the template name used in error messages.
func (t *Template) Name() string { return t.name }

// String returns the unparsed template text.
func (t *Template) String() string { return t.text }
