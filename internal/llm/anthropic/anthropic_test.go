package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/llmexperts/pkg/llm"
	"github.com/HerbHall/llmexperts/pkg/llm/llmtest"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, serverURL string) *Provider {
	t.Helper()
	p, err := New(Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "claude-3-haiku-20240307",
		Timeout: 10 * time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// mockAnthropic returns an httptest server that handles the Messages API.
// The last decoded request is stored in *last.
func mockAnthropic(t *testing.T, last *messagesRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`)) //nolint:errcheck
	})

	mux.HandleFunc("POST /v1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)) //nolint:errcheck
			return
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if last != nil {
			*last = req
		}
		if req.Model == "nonexistent-model-12345" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"type":"error","error":{"type":"not_found_error","message":"model: nonexistent-model-12345"}}`)) //nolint:errcheck
			return
		}

		text := "Hello from Claude!"
		if strings.Contains(req.Messages[len(req.Messages)-1].Content, "2+2") {
			text = "4"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":          "msg_1",
			"model":       req.Model,
			"stop_reason": "end_turn",
			"content":     []map[string]string{{"type": "text", "text": text}},
			"usage":       map[string]int{"input_tokens": 20, "output_tokens": 5},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestContract(t *testing.T) {
	srv := mockAnthropic(t, nil)
	llmtest.TestProviderContract(t, func() llm.Provider { return newTestProvider(t, srv.URL) })
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(DefaultConfig(), zap.NewNop()); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestChat_SystemMessageHoisted(t *testing.T) {
	var got messagesRequest
	srv := mockAnthropic(t, &got)
	p := newTestProvider(t, srv.URL)

	prompt := llm.NewPrompt("Rate on a 1-7 scale.", []llm.Message{
		{Role: llm.RoleUser, Content: "example"},
		{Role: llm.RoleAssistant, Content: "3"},
	}, "text to rate")

	resp, err := p.Chat(context.Background(), prompt, llm.WithMaxTokens(50))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got.System != "Rate on a 1-7 scale." {
		t.Errorf("System = %q, want %q", got.System, "Rate on a 1-7 scale.")
	}
	if len(got.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(got.Messages))
	}
	if got.Messages[1].Role != llm.RoleAssistant {
		t.Errorf("Messages[1].Role = %q, want assistant", got.Messages[1].Role)
	}
	if got.MaxTokens != 50 {
		t.Errorf("MaxTokens = %d, want 50", got.MaxTokens)
	}
	if resp.Usage.PromptTokens != 20 || resp.Usage.TotalTokens != 25 {
		t.Errorf("Usage = %+v, want prompt 20 total 25", resp.Usage)
	}
	if resp.Metadata["stop_reason"] != "end_turn" {
		t.Errorf("stop_reason = %v, want end_turn", resp.Metadata["stop_reason"])
	}
}

func TestChat_OnlySystemMessage(t *testing.T) {
	srv := mockAnthropic(t, nil)
	p := newTestProvider(t, srv.URL)

	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleSystem, Content: "x"}})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) || pe.Code != llm.ErrCodeInvalidRequest {
		t.Errorf("expected invalid request, got %v", err)
	}
}

func TestChat_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Number of request tokens has exceeded your per-minute rate limit"}}`)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	p := newTestProvider(t, srv.URL)

	_, err := p.Generate(context.Background(), "hi")
	if !llm.IsRateLimitError(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"canceled", context.Canceled, llm.IsTimeoutError},
		{"401", &anthropicStatusError{StatusCode: 401}, llm.IsAuthenticationError},
		{"not found", &anthropicStatusError{StatusCode: 404, Type: "not_found_error"}, llm.IsModelNotFoundError},
		{"prompt too long", &anthropicStatusError{StatusCode: 400, Type: "invalid_request_error", Message: "prompt is too long: 250000 tokens"}, llm.IsContextLengthError},
		{"overloaded", &anthropicStatusError{StatusCode: 529, Type: "overloaded_error"}, llm.IsServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapError(tc.err); !tc.check(got) {
				t.Errorf("mapError(%v) = %v, wrong classification", tc.err, got)
			}
		})
	}
}
