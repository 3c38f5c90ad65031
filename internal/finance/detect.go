package finance

import (
	"strings"

	"github.com/tmakino/ledgerlens/pkg/utils"
)

// Ordered name hints for each column role. Earlier hints take priority; a hint
// matches when it is a substring of the normalized column name.
var (
	datetimeHints = []string{"date", "time", "datetime", "timestamp"}
	amountHints   = []string{"amount", "amt", "value", "total", "debit", "credit", "payment", "balance"}
	categoryHints = []string{"category", "type", "merchant", "description", "desc", "account"}
)

// minContentRate is the minimum hit rate for the content-scoring fallback to
// accept a column as datetime or amount.
const minContentRate = 0.30

// categoryUniquenessTarget is the uniqueness ratio the category fallback
// prefers. There is deliberately no lower bound: some column is always
// returned when any candidate remains.
const categoryUniquenessTarget = 0.20

// Roles holds the detected column name per role. An empty string means the
// role was not detected.
type Roles struct {
	Datetime string
	Amount   string
	Category string
}

// dataset is a cleaned tabular view: ordered column names and records mapping
// column name to cell text.
type dataset struct {
	columns []string
	records []map[string]string
}

// values returns the non-empty cells of col in row order.
func (d *dataset) values(col string) []string {
	out := make([]string, 0, len(d.records))
	for _, rec := range d.records {
		if v := strings.TrimSpace(rec[col]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeColumn(c string) string {
	return strings.ToLower(utils.CollapseWhitespace(c))
}

// columnStrategy proposes a column for a role, or "" when it has no opinion.
// Columns in exclude are never proposed.
type columnStrategy func(d *dataset, exclude map[string]bool) string

// detectColumn evaluates strategies in order and returns the first proposal.
func detectColumn(d *dataset, exclude map[string]bool, strategies ...columnStrategy) string {
	for _, s := range strategies {
		if col := s(d, exclude); col != "" {
			return col
		}
	}
	return ""
}

// hintMatch returns a strategy that matches normalized column names against
// the ordered hint list. The first hint that substring-matches any column
// wins; among columns, original column order decides.
func hintMatch(hints []string) columnStrategy {
	return func(d *dataset, exclude map[string]bool) string {
		for _, h := range hints {
			for _, c := range d.columns {
				if exclude[c] {
					continue
				}
				if strings.Contains(normalizeColumn(c), h) {
					return c
				}
			}
		}
		return ""
	}
}

// bestByRate returns a strategy that scores each column with rate and accepts
// the max-scoring column when its rate is at least minRate. Ties keep the
// first column in original order.
func bestByRate(rate func(d *dataset, col string) float64, minRate float64) columnStrategy {
	return func(d *dataset, exclude map[string]bool) string {
		best := ""
		bestRate := 0.0
		for _, c := range d.columns {
			if exclude[c] {
				continue
			}
			if r := rate(d, c); r > bestRate {
				bestRate = r
				best = c
			}
		}
		if bestRate >= minRate {
			return best
		}
		return ""
	}
}

// amountRate is the fraction of a column's non-empty values that look like
// currency amounts.
func amountRate(d *dataset, col string) float64 {
	vals := d.values(col)
	if len(vals) == 0 {
		return 0
	}
	hits := 0
	for _, v := range vals {
		if looksLikeAmount(v) {
			hits++
		}
	}
	return float64(hits) / float64(len(vals))
}

// datetimeRate is the fraction of all rows whose cell in col parses as a
// date/time. Empty cells count against the rate.
func datetimeRate(d *dataset, col string) float64 {
	if len(d.records) == 0 {
		return 0
	}
	hits := 0
	for _, rec := range d.records {
		if _, ok := ParseTime(rec[col]); ok {
			hits++
		}
	}
	return float64(hits) / float64(len(d.records))
}

// closestUniqueness returns a strategy picking the column whose
// distinct/total ratio over non-empty values is closest to target.
// No minimum threshold: a column is returned whenever any candidate has
// values, preserving the permissive category heuristic.
func closestUniqueness(target float64) columnStrategy {
	return func(d *dataset, exclude map[string]bool) string {
		best := ""
		bestScore := 0.0
		for _, c := range d.columns {
			if exclude[c] {
				continue
			}
			vals := d.values(c)
			if len(vals) == 0 {
				continue
			}
			distinct := make(map[string]struct{}, len(vals))
			for _, v := range vals {
				distinct[v] = struct{}{}
			}
			ratio := float64(len(distinct)) / float64(len(vals))
			diff := ratio - target
			if diff < 0 {
				diff = -diff
			}
			score := 1.0 - diff
			if score > bestScore {
				bestScore = score
				best = c
			}
		}
		return best
	}
}

func detectDatetimeColumn(d *dataset) string {
	return detectColumn(d, nil,
		hintMatch(datetimeHints),
		bestByRate(datetimeRate, minContentRate),
	)
}

func detectAmountColumn(d *dataset) string {
	return detectColumn(d, nil,
		hintMatch(amountHints),
		bestByRate(amountRate, minContentRate),
	)
}

func detectCategoryColumn(d *dataset, exclude ...string) string {
	ex := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		ex[c] = true
	}
	return detectColumn(d, ex,
		hintMatch(categoryHints),
		closestUniqueness(categoryUniquenessTarget),
	)
}

// DetectRoles classifies the columns of a cleaned dataset. Datetime and
// amount are detected independently; category is detected among the columns
// not already claimed by the other two roles.
func DetectRoles(columns []string, records []map[string]string) Roles {
	d := &dataset{columns: columns, records: records}
	roles := Roles{
		Datetime: detectDatetimeColumn(d),
		Amount:   detectAmountColumn(d),
	}
	roles.Category = detectCategoryColumn(d, roles.Datetime, roles.Amount)
	return roles
}
