package prompt

import (
	"errors"
	"fmt"
	"strings"

	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
)

var (
	// ErrUnknownIssue matches errors for issue names missing from a template.
	ErrUnknownIssue = errors.New("unknown issue")

	// ErrIndexOutOfRange is returned for persona or encouragement selectors
	// outside the declared lists.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnsupportedFormat is returned for template files that are neither
	// YAML nor JSON.
	ErrUnsupportedFormat = fmt.Errorf("template file format not implemented: %w", pkgllm.ErrConfiguration)
)

// UnknownIssueError names an issue a template does not define.
type UnknownIssueError struct {
	Issue string
	Known []string
}

func (e *UnknownIssueError) Error() string {
	return fmt.Sprintf("unknown issue %q; known issues: %s", e.Issue, strings.Join(e.Known, ", "))
}

// Is matches ErrUnknownIssue and pkgllm.ErrConfiguration.
func (e *UnknownIssueError) Is(target error) bool {
	return target == ErrUnknownIssue || target == pkgllm.ErrConfiguration
}
