package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmakino/ledgerlens/internal/models"
)

// cellGap is the horizontal whitespace, in points, that separates two cells
// within a PDF text row.
const cellGap = 10.0

func (e *Extractor) pdfText(path string) ([]models.PageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages > e.maxPages {
		numPages = e.maxPages
	}

	var pages []models.PageText
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, models.PageText{Page: i, Text: text})
	}
	return pages, nil
}

func (e *Extractor) pdfTables(path string) ([]models.PageGrid, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages > e.maxPages {
		numPages = e.maxPages
	}

	var grids []models.PageGrid
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("extract rows on page %d: %w", i, err)
		}
		grid := rowsToGrid(rows)
		if len(grid) == 0 {
			continue
		}
		grids = append(grids, models.PageGrid{Page: i, Grid: grid})
	}
	return grids, nil
}

// rowsToGrid turns positioned text rows into cell rows. Texts within a row
// are merged left to right; a horizontal gap wider than cellGap starts a new
// cell.
func rowsToGrid(rows pdf.Rows) models.RawGrid {
	var grid models.RawGrid
	for _, row := range rows {
		cells := splitRowCells(row.Content)
		if len(cells) == 0 {
			continue
		}
		grid = append(grid, cells)
	}
	return grid
}

func splitRowCells(texts pdf.TextHorizontal) []string {
	var cells []string
	var current strings.Builder
	var cursor float64
	for i, t := range texts {
		if i > 0 && t.X-cursor > cellGap {
			cells = appendCell(cells, current.String())
			current.Reset()
		}
		current.WriteString(t.S)
		cursor = t.X + t.W
	}
	cells = appendCell(cells, current.String())
	return cells
}

func appendCell(cells []string, cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" && len(cells) == 0 {
		return cells
	}
	return append(cells, cell)
}
