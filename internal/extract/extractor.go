// Package extract pulls page text and raw row grids out of uploaded
// documents. Text feeds passage chunking; grids feed transaction table
// detection.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmakino/ledgerlens/internal/models"
)

// Extractor extracts page text and tables from document files.
// maxPages caps how many pages (or sheets) are read.
type Extractor struct {
	maxPages int
}

// NewExtractor returns an extractor reading at most maxPages pages.
func NewExtractor(maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Extractor{maxPages: maxPages}
}

// Text extracts per-page text from the file at path. Formats without page
// structure yield a single page. Page numbers are 1-based.
func (e *Extractor) Text(path string) ([]models.PageText, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return e.pdfText(path)
	case ".xlsx":
		return e.excelText(path)
	case ".docx":
		return singlePageText(extractDOCXFile(path))
	case ".odt", ".rtf":
		return singlePageText(extractWithCat(path))
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return singlePageText(extractPlain(content))
	}
}

// Tables extracts raw row grids from the file at path. Only PDF and Excel
// carry tabular structure; other formats yield no grids.
func (e *Extractor) Tables(path string) ([]models.PageGrid, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return e.pdfTables(path)
	case ".xlsx":
		return e.excelTables(path)
	default:
		return nil, nil
	}
}

func singlePageText(text string, err error) ([]models.PageText, error) {
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []models.PageText{{Page: 1, Text: text}}, nil
}
