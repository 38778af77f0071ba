// Package llmtest provides shared contract tests that verify any
// llm.Provider implementation behaves correctly, plus a scripted fake
// provider for exercising callers without a network.
//
// Provider packages run the contract against an httptest server that
// speaks the provider's wire format.
package llmtest

import (
	"context"
	"strings"
	"testing"

	"github.com/HerbHall/llmexperts/pkg/llm"
)

// TestProviderContract runs a suite of behavioral contract tests against
// any llm.Provider implementation. Call this from each provider's _test.go:
//
//	func TestContract(t *testing.T) {
//	    srv := mockServer(t)
//	    llmtest.TestProviderContract(t, func() llm.Provider { return newTestProvider(t, srv.URL) })
//	}
func TestProviderContract(t *testing.T, factory func() llm.Provider) {
	t.Helper()

	t.Run("Generate_returns_non_empty_response", func(t *testing.T) {
		p := factory()
		resp, err := p.Generate(context.Background(), "Say hello in exactly three words")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if resp == nil {
			t.Fatal("Generate() returned nil response")
		}
		if resp.Content == "" {
			t.Error("Generate() returned empty content")
		}
		if resp.Model == "" {
			t.Error("Response.Model must not be empty")
		}
	})

	t.Run("Chat_with_conversation_history", func(t *testing.T) {
		p := factory()
		prompt := llm.NewPrompt(
			"You are a helpful assistant. Be concise.",
			[]llm.Message{
				{Role: llm.RoleUser, Content: "What is 1+1? Reply with just the number."},
				{Role: llm.RoleAssistant, Content: "2"},
			},
			"What is 2+2? Reply with just the number.",
		)
		resp, err := p.Chat(context.Background(), prompt)
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if resp == nil {
			t.Fatal("Chat() returned nil response")
		}
		if resp.Content == "" {
			t.Error("Chat() returned empty content")
		}
		if !strings.Contains(resp.Content, "4") {
			t.Logf("Chat() response = %q", resp.Content)
			t.Error("expected response to contain '4'")
		}
		if resp.Usage.PromptTokens < 0 || resp.Usage.CompletionTokens < 0 {
			t.Errorf("Usage = %+v, token counts must not be negative", resp.Usage)
		}
	})

	t.Run("Generate_with_model_option", func(t *testing.T) {
		p := factory()
		resp, err := p.Generate(
			context.Background(),
			"Hi",
			llm.WithModel("nonexistent-model-12345"),
		)
		if err != nil {
			if llm.IsModelNotFoundError(err) {
				return // expected -- provider correctly reports missing model
			}
			// Some providers reject unknown models with a generic error. That's OK.
			t.Logf("Generate() with bad model returned error: %v", err)
			return
		}
		if resp == nil {
			t.Fatal("Generate() returned nil response")
		}
		// Provider may have fallen back to default model.
		if resp.Model == "" {
			t.Error("Response.Model must not be empty")
		}
	})

	t.Run("Generate_cancelled_context", func(t *testing.T) {
		p := factory()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Generate(ctx, "Write a very long essay about everything")
		if err == nil {
			t.Error("Generate() with cancelled context should return error")
		}
	})

	t.Run("Chat_empty_messages_returns_error", func(t *testing.T) {
		p := factory()
		_, err := p.Chat(context.Background(), nil)
		if err == nil {
			t.Error("Chat() with nil messages should return error")
		}
	})

	t.Run("HealthReporter_if_implemented", func(t *testing.T) {
		p := factory()
		hr, ok := p.(llm.HealthReporter)
		if !ok {
			t.Skip("Provider does not implement HealthReporter")
		}
		if err := hr.Heartbeat(context.Background()); err != nil {
			t.Errorf("Heartbeat() error = %v", err)
		}
		models, err := hr.ListModels(context.Background())
		if err != nil {
			t.Fatalf("ListModels() error = %v", err)
		}
		if len(models) == 0 {
			t.Error("ListModels() returned empty list")
		}
	})
}
