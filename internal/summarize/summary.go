package summarize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

// Summary is the result of summarizing one document: every model response
// in order and the content of the last one.
type Summary struct {
	FinalSummary string
	Responses    []*pkgllm.Response
	RunID        string
}

func newSummary(responses []*pkgllm.Response) *Summary {
	return &Summary{
		FinalSummary: responses[len(responses)-1].Content,
		Responses:    responses,
	}
}

func (s *Summary) String() string { return s.FinalSummary }

// Usage sums the token usage of every response.
func (s *Summary) Usage() pkgllm.Usage {
	var u pkgllm.Usage
	for _, r := range s.Responses {
		u.PromptTokens += r.Usage.PromptTokens
		u.CompletionTokens += r.Usage.CompletionTokens
		u.TotalTokens += r.Usage.TotalTokens
	}
	return u
}

type logRecord struct {
	RunID        string             `json:"run_id,omitempty"`
	Responses    []*pkgllm.Response `json:"responses"`
	FinalSummary string             `json:"final_summary"`
}

// Dump serializes the summary as a single-line JSON log record.
func (s *Summary) Dump() ([]byte, error) {
	data, err := json.Marshal(logRecord{
		RunID:        s.RunID,
		Responses:    s.Responses,
		FinalSummary: s.FinalSummary,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal summary log: %w", err)
	}
	return data, nil
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory. Concurrent writers do not interleave; the last rename wins.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".summary-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// appendLine appends data and a newline to path, creating it if needed.
func appendLine(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Close()
}
