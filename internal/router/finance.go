package router

import (
	"strings"

	"github.com/tmakino/ledgerlens/internal/models"
)

// chart and grouping keyword sets, checked in order; the first matching set
// wins within each dimension.
var (
	barKeywords   = []string{"bar chart", "barchart", "bar"}
	pieKeywords   = []string{"pie chart", "pie"}
	lineKeywords  = []string{"line chart", "trend", "over time", "time series", "timeline", "line"}
	catKeywords   = []string{"category", "merchant", "type", "by category"}
	hourKeywords  = []string{"hour", "hourly"}
	dayKeywords   = []string{"day", "daily"}
	monthKeywords = []string{"month", "monthly"}
)

func containsAny(t string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// ParseFinanceRequest maps a free-text finance request to a chart intent.
// Unrecognized text yields {ChartNone, GroupAuto}.
func ParseFinanceRequest(text string) models.Intent {
	t := strings.Join(strings.Fields(strings.ToLower(text)), " ")

	chart := models.ChartNone
	switch {
	case containsAny(t, barKeywords):
		chart = models.ChartBar
	case containsAny(t, pieKeywords):
		chart = models.ChartPie
	case containsAny(t, lineKeywords):
		chart = models.ChartLine
	}

	group := models.GroupAuto
	switch {
	case containsAny(t, catKeywords):
		group = models.GroupCategory
	case containsAny(t, hourKeywords):
		group = models.GroupHour
	case containsAny(t, dayKeywords):
		group = models.GroupDay
	case containsAny(t, monthKeywords):
		group = models.GroupMonth
	}

	return models.Intent{Chart: chart, Group: group}
}

// WantsTopTransactions reports whether the request asks for the largest
// income or expense rows.
func WantsTopTransactions(text string) bool {
	t := strings.ToLower(text)
	for _, k := range []string{
		"top expense", "top expenses",
		"largest expense", "largest expenses",
		"top income", "top incomes",
	} {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
