package finance

import (
	"strings"

	"github.com/tmakino/ledgerlens/internal/models"
)

// SelectTable runs role detection over every extracted grid and returns the
// best surviving candidate, or nil when no grid qualifies. "Best" is the
// candidate with the most validated rows; ties keep the first encountered.
//
// A nil result is the normal "no financial table detected" outcome, not an
// error.
func SelectTable(grids []models.RawGrid) *Table {
	var best *Table
	for _, g := range grids {
		candidate := buildCandidate(g)
		if candidate == nil {
			continue
		}
		if best == nil || len(candidate.Rows) > len(best.Rows) {
			best = candidate
		}
	}
	return best
}

// buildCandidate validates a single grid: header sanity, row cleaning, role
// detection, and cell coercion. Returns nil when the grid does not qualify.
func buildCandidate(g models.RawGrid) *Table {
	if len(g) < 2 {
		return nil
	}

	header := make([]string, len(g[0]))
	nonEmpty := 0
	for i, h := range g[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return nil
	}

	records := bodyRecords(header, g[1:])
	if len(records) < 3 {
		return nil
	}

	d := &dataset{columns: header, records: records}
	dtCol := detectDatetimeColumn(d)
	amtCol := detectAmountColumn(d)
	if dtCol == "" || amtCol == "" {
		return nil
	}

	// Coerce datetime and amount; rows missing either value are dropped
	// whole, no partial-row data is retained.
	rows := make([]Row, 0, len(records))
	kept := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		t, ok := ParseTime(rec[dtCol])
		if !ok {
			continue
		}
		amt, ok := ParseAmount(rec[amtCol])
		if !ok {
			continue
		}
		rows = append(rows, Row{Time: t, Amount: amt, Cells: rec})
		kept = append(kept, rec)
	}
	if len(rows) < 3 {
		return nil
	}

	catCol := detectCategoryColumn(&dataset{columns: header, records: kept}, dtCol, amtCol)

	return &Table{
		DatetimeColumn: dtCol,
		AmountColumn:   amtCol,
		CategoryColumn: catCol,
		Rows:           rows,
	}
}

// bodyRecords maps body rows onto the header, dropping fully-empty rows.
// Ragged rows are padded with empty cells; extra cells are ignored.
func bodyRecords(header []string, body [][]string) []map[string]string {
	records := make([]map[string]string, 0, len(body))
	for _, row := range body {
		rec := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			if col == "" {
				continue
			}
			cell := ""
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			rec[col] = cell
			if cell != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, rec)
	}
	return records
}
