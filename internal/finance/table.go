// Package finance implements heuristic detection of financial tables in noisy
// extracted grids, and aggregate analytics over the detected table.
package finance

import "time"

// Table is a validated financial table detected in a document. Every row has a
// parsed datetime and a parsed numeric amount; CategoryColumn is empty when no
// category column was detected. A Table is built once per document and treated
// as immutable afterwards.
type Table struct {
	DatetimeColumn string `json:"datetime_column"`
	AmountColumn   string `json:"amount_column"`
	CategoryColumn string `json:"category_column,omitempty"`
	Rows           []Row  `json:"rows"`
}

// Row is a single validated transaction row. Cells holds the original text
// cells keyed by column name, including the raw datetime and amount text.
type Row struct {
	Time   time.Time         `json:"time"`
	Amount float64           `json:"amount"`
	Cells  map[string]string `json:"cells"`
}

// Category returns the category cell of r, or "" when the table has no
// category column.
func (t *Table) Category(r Row) string {
	if t.CategoryColumn == "" {
		return ""
	}
	return r.Cells[t.CategoryColumn]
}
