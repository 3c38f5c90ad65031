package extract

import (
	"fmt"
	"strings"

	"github.com/tmakino/ledgerlens/internal/models"
	"github.com/xuri/excelize/v2"
)

// Excel workbooks map one sheet to one page.

func (e *Extractor) excelText(path string) ([]models.PageText, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var pages []models.PageText
	for i, sheet := range f.GetSheetList() {
		if i >= e.maxPages {
			break
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		var buf strings.Builder
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
		text := strings.TrimSpace(buf.String())
		if text == "" {
			continue
		}
		pages = append(pages, models.PageText{Page: i + 1, Text: text})
	}
	return pages, nil
}

func (e *Extractor) excelTables(path string) ([]models.PageGrid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var grids []models.PageGrid
	for i, sheet := range f.GetSheetList() {
		if i >= e.maxPages {
			break
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		grids = append(grids, models.PageGrid{Page: i + 1, Grid: models.RawGrid(rows)})
	}
	return grids, nil
}
