// Package keyword provides a Bleve full-text index over passages. It serves
// retrieval when no embedding provider is configured, so chat still works
// against the document text.
package keyword

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/tmakino/ledgerlens/internal/models"
)

// bleveDoc is the shape indexed per passage.
type bleveDoc struct {
	Text string `json:"text"`
}

// Index is an in-memory Bleve index keyed by passage ID. The index holds one
// document's passages and is rebuilt wholesale when the document changes.
type Index struct {
	index    bleve.Index
	passages map[string]models.Passage
	mu       sync.RWMutex
}

// NewMemIndex creates an empty in-memory index.
// Standard analyzer (lowercase + tokenize, no stemming) so a query term
// matches the exact word it was typed as.
func NewMemIndex() (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Index{index: index, passages: make(map[string]models.Passage)}, nil
}

// Add indexes the given passages.
func (ix *Index) Add(ctx context.Context, passages []models.Passage) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	batch := ix.index.NewBatch()
	for _, p := range passages {
		if err := batch.Index(p.ID, bleveDoc{Text: p.Text}); err != nil {
			return fmt.Errorf("failed to batch passage %s: %w", p.ID, err)
		}
		ix.passages[p.ID] = p
	}
	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs a match query and returns up to topK passages ranked by Bleve
// score, descending.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]models.RetrievedPassage, error) {
	if topK <= 0 {
		return nil, nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = topK
	results, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]models.RetrievedPassage, 0, len(results.Hits))
	for _, hit := range results.Hits {
		p, ok := ix.passages[hit.ID]
		if !ok {
			continue
		}
		out = append(out, models.RetrievedPassage{Passage: p, Score: hit.Score})
	}
	return out, nil
}

// Size returns the number of indexed passages.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.passages)
}

// Close closes the underlying Bleve index.
func (ix *Index) Close() error {
	return ix.index.Close()
}
