package llmtest

import (
	"context"
	"sync"

	"github.com/HerbHall/llmexperts/pkg/llm"
)

// Compile-time interface guard.
var _ llm.Provider = (*FakeProvider)(nil)

// Step is one scripted outcome for FakeProvider. A nil Err returns Response.
type Step struct {
	Response *llm.Response
	Err      error
}

// FakeProvider is a scripted llm.Provider for tests. Each call consumes the
// next Step; once the script is exhausted the Reply func (or an echo of the
// last user message) answers.
type FakeProvider struct {
	mu     sync.Mutex
	steps  []Step
	calls  []llm.Prompt
	opts   []llm.CallConfig
	Reply  func(prompt llm.Prompt) (*llm.Response, error)
	Tokens int // Prompt tokens reported by echo replies.
}

// NewFakeProvider returns a FakeProvider that plays steps in order.
func NewFakeProvider(steps ...Step) *FakeProvider {
	return &FakeProvider{steps: steps}
}

// Generate wraps the prompt in a single user message and calls Chat.
func (f *FakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.CallOption) (*llm.Response, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// Chat records the call and returns the next scripted outcome.
func (f *FakeProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.NewProviderError(llm.ErrCodeTimeout, "request timed out or cancelled", err)
	}
	if len(messages) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	prompt := append(llm.Prompt(nil), messages...)
	cfg := llm.ApplyOptions(opts...)

	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.opts = append(f.opts, cfg)
	var step *Step
	if len(f.steps) > 0 {
		step = &f.steps[0]
		f.steps = f.steps[1:]
	}
	reply := f.Reply
	tokens := f.Tokens
	f.mu.Unlock()

	if step != nil {
		if step.Err != nil {
			return nil, step.Err
		}
		return step.Response, nil
	}
	if reply != nil {
		return reply(prompt)
	}
	return &llm.Response{
		Content: prompt.LastHuman(),
		Model:   cfg.Model,
		Usage:   llm.Usage{PromptTokens: tokens, TotalTokens: tokens},
		Done:    true,
	}, nil
}

// Calls returns a copy of every prompt received so far.
func (f *FakeProvider) Calls() []llm.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.Prompt, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallConfigs returns the resolved options of every call so far.
func (f *FakeProvider) CallConfigs() []llm.CallConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.CallConfig, len(f.opts))
	copy(out, f.opts)
	return out
}

// CallCount returns the number of Chat calls so far.
func (f *FakeProvider) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Text is a convenience Step returning content with the given prompt tokens.
func Text(content string, promptTokens int) Step {
	return Step{Response: &llm.Response{
		Content: content,
		Usage:   llm.Usage{PromptTokens: promptTokens, TotalTokens: promptTokens},
		Done:    true,
	}}
}

// Fail is a convenience Step returning err.
func Fail(err error) Step {
	return Step{Err: err}
}
