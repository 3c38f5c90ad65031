// Package passage turns extracted page text into overlapping, page-tagged
// passages ready for embedding and retrieval.
package passage

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tmakino/ledgerlens/internal/models"
	"github.com/tmakino/ledgerlens/pkg/utils"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 150
)

// ChunkText collapses whitespace and slides a fixed-size character window with
// the given overlap over the text. The final chunk may be shorter. Empty input
// yields nil. Non-positive chunkSize or negative overlap is a usage fault and
// returns an error rather than being clamped.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}

	text = utils.CollapseWhitespace(text)
	if text == "" {
		return nil, nil
	}

	// Window over runes, not bytes, so multi-byte text never splits
	// mid-character.
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

// Build chunks every page and tags each chunk with its page number. Passages
// are ordered by page, then by chunk position within the page.
func Build(pages []models.PageText, chunkSize, overlap int) ([]models.Passage, error) {
	var passages []models.Passage
	for _, p := range pages {
		chunks, err := ChunkText(p.Text, chunkSize, overlap)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			passages = append(passages, models.Passage{
				ID:   fmt.Sprintf("p%d_%s", p.Page, uuid.New().String()[:8]),
				Page: p.Page,
				Text: fmt.Sprintf("[page %d] %s", p.Page, c),
			})
		}
	}
	return passages, nil
}
