package llm

import (
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

// mockMaxChars caps the echoed content of dry-run responses.
const mockMaxChars = 2000

// truncateMiddle keeps the first and last max/2 characters of s joined by
// " ... " when s is longer than max.
func truncateMiddle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	half := max / 2
	return string(r[:half]) + " ... " + string(r[len(r)-half:])
}

// mockResponse builds the dry-run response for prompt. An override is
// returned verbatim; otherwise the last user message is echoed behind tag.
func mockResponse(model string, prompt pkgllm.Prompt, tag string, override *string) *pkgllm.Response {
	var content string
	if override != nil {
		content = *override
	} else {
		content = truncateMiddle(prompt.LastHuman(), mockMaxChars)
		if tag != "" {
			content = tag + " " + content
		}
	}

	return &pkgllm.Response{
		Content:  content,
		Model:    model,
		Metadata: map[string]any{},
		Done:     true,
	}
}
