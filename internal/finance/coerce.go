package finance

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// amountPattern matches currency-like values anywhere in a cell: optional
// sign, optional dollar sign, digit groups with optional thousands
// separators, optional decimals, optional surrounding parentheses.
var amountPattern = regexp.MustCompile(`[-+]?\$?\s*\(?\s*\d{1,3}(?:,\d{3})*(?:\.\d+)?\s*\)?`)

// dateLayouts are tried in order by ParseTime. Time-bearing layouts come
// before their date-only prefixes so "2024-01-02 13:00" is not half-parsed.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseAmount coerces a text cell into a number. Currency symbols and
// thousands separators are stripped; a value wrapped in parentheses is
// negated. Returns false when the cell does not reduce to a parseable number.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := strings.Contains(s, "(") && strings.Contains(s, ")")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		if v < 0 {
			v = -v
		}
		return -v, true
	}
	return v, true
}

// ParseTime attempts a generic date/time parse of a text cell.
// Returns false when no known layout matches.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// looksLikeAmount reports whether the cell contains a currency-like value.
func looksLikeAmount(s string) bool {
	return amountPattern.MatchString(s)
}
