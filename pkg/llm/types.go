package llm

import (
	"fmt"
	"unicode/utf8"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"` // One of RoleSystem, RoleUser, RoleAssistant.
	Content string `json:"content"`
}

// Role constants for the Message.Role field.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Prompt is an ordered chat prompt: one leading system message, zero or more
// user/assistant example pairs, and one trailing user message.
type Prompt []Message

// NewPrompt builds a prompt from a system message, few-shot example pairs,
// and the final user message.
func NewPrompt(system string, examples []Message, human string) Prompt {
	p := make(Prompt, 0, len(examples)+2)
	p = append(p, Message{Role: RoleSystem, Content: system})
	p = append(p, examples...)
	p = append(p, Message{Role: RoleUser, Content: human})
	return p
}

// Validate reports whether the prompt has the system/pairs/user shape.
func (p Prompt) Validate() error {
	if len(p) < 2 {
		return fmt.Errorf("prompt needs a system and a user message, got %d messages", len(p))
	}
	if p[0].Role != RoleSystem {
		return fmt.Errorf("prompt must start with a %s message, got %q", RoleSystem, p[0].Role)
	}
	if p[len(p)-1].Role != RoleUser {
		return fmt.Errorf("prompt must end with a %s message, got %q", RoleUser, p[len(p)-1].Role)
	}
	middle := p[1 : len(p)-1]
	if len(middle)%2 != 0 {
		return fmt.Errorf("prompt examples must come in user/assistant pairs, got %d messages", len(middle))
	}
	for i := 0; i < len(middle); i += 2 {
		if middle[i].Role != RoleUser || middle[i+1].Role != RoleAssistant {
			return fmt.Errorf("prompt example %d is %s/%s, want %s/%s",
				i/2, middle[i].Role, middle[i+1].Role, RoleUser, RoleAssistant)
		}
	}
	return nil
}

// System returns the content of the leading system message, or "".
func (p Prompt) System() string {
	if len(p) == 0 || p[0].Role != RoleSystem {
		return ""
	}
	return p[0].Content
}

// LastHuman returns the content of the last user message, or "".
func (p Prompt) LastHuman() string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Role == RoleUser {
			return p[i].Content
		}
	}
	return ""
}

// CharCount returns the total number of characters across all messages.
func (p Prompt) CharCount() int {
	n := 0
	for _, m := range p {
		n += utf8.RuneCountInString(m.Content)
	}
	return n
}

// Response contains the model's generated text and metadata.
type Response struct {
	Content  string         `json:"content"`            // Generated text.
	Model    string         `json:"model"`              // Model that produced this response.
	Usage    Usage          `json:"usage"`              // Token consumption stats.
	Metadata map[string]any `json:"metadata,omitempty"` // Provider-specific details (finish reason, logprobs).
	Done     bool           `json:"done"`               // True if generation completed (false if truncated).
}

// Usage tracks token consumption for a single call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
