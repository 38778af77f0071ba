package summarize

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter cuts text into ordered, possibly overlapping chunks that together
// cover the input.
type Splitter interface {
	Split(text string, chunkSize, overlap int) ([]string, error)
}

// RecursiveSplitter splits on paragraph, line, word and finally character
// boundaries. Sizes are counted in runes.
type RecursiveSplitter struct{}

var _ Splitter = RecursiveSplitter{}

// Split implements Splitter.
func (RecursiveSplitter) Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap > chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be between 0 and the chunk size %d", overlap, chunkSize)
	}
	s := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
	)
	chunks, err := s.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	if len(chunks) == 0 {
		// Empty input still yields one (empty) chunk to summarize.
		return []string{text}, nil
	}
	return chunks, nil
}
