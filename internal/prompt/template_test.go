package prompt

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

func TestParse_Render(t *testing.T) {
	tmpl, err := Parse("t", "Hello {name}, {{literal}} {name}!", "name")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := tmpl.Render(map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "Hello Ada, {literal} Ada!"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if slots := tmpl.Slots(); !reflect.DeepEqual(slots, []string{"name"}) {
		t.Errorf("Slots() = %v, want [name]", slots)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"undeclared slot", "Hi {nmae}", "undeclared slot"},
		{"unclosed brace", "Hi {name", "unclosed"},
		{"unmatched close", "Hi name}", "unmatched"},
		{"empty placeholder", "Hi {}", "invalid placeholder"},
		{"bad placeholder", "Hi {na-me}", "invalid placeholder"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("t", tc.text, "name")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, pkgllm.ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestRender_MissingValue(t *testing.T) {
	tmpl, err := Parse("t", "{a}{b}", "a", "b")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := tmpl.Render(map[string]string{"a": "x"}); err == nil {
		t.Error("Render() with missing slot returned nil error")
	}
}

func TestParse_UnusedSlotAllowed(t *testing.T) {
	tmpl, err := Parse("t", "static text", "text")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := tmpl.Render(nil)
	if err != nil || got != "static text" {
		t.Errorf("Render() = %q, %v; want static text", got, err)
	}
}
