package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/HerbHall/llmexperts/pkg/llm"
	"google.golang.org/genai"
)

// mapError translates genai and network errors into typed llm.ProviderError values.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out or cancelled", err)
	}

	var ae genai.APIError
	if errors.As(err, &ae) {
		lower := strings.ToLower(ae.Message)
		switch {
		case ae.Code == 401 || ae.Code == 403:
			return llm.NewProviderError(llm.ErrCodeAuthentication, ae.Message, err)
		case ae.Code == 429 || ae.Status == "RESOURCE_EXHAUSTED":
			return llm.NewProviderError(llm.ErrCodeRateLimit, ae.Message, err)
		case ae.Code == 404 && strings.Contains(lower, "model"):
			return llm.NewProviderError(llm.ErrCodeModelNotFound, ae.Message, err)
		case strings.Contains(lower, "token count") || strings.Contains(lower, "context length"):
			return llm.NewProviderError(llm.ErrCodeContextLength, ae.Message, err)
		case ae.Code >= 500:
			return llm.NewProviderError(llm.ErrCodeServerError, ae.Message, err)
		case ae.Code >= 400:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, ae.Message, err)
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return llm.NewProviderError(llm.ErrCodeServerError, "gemini server unreachable", err)
	}

	return llm.NewProviderError(llm.ErrCodeServerError, "gemini error", err)
}
