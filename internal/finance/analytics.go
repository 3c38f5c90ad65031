package finance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tmakino/ledgerlens/internal/models"
)

// Frequency is a time-bucket granularity for Aggregate.
type Frequency string

const (
	FreqHour  Frequency = "hour"
	FreqDay   Frequency = "day"
	FreqMonth Frequency = "month"
)

// Default truncation sizes for the breakdown views.
const (
	DefaultPieTop      = 8
	DefaultCategoryTop = 12
	DefaultTopN        = 8
)

// Totals is the basic numeric summary of a table.
type Totals struct {
	Rows       int     `json:"rows"`
	Sum        float64 `json:"sum"`
	IncomePos  float64 `json:"income_sum_pos"`
	ExpenseNeg float64 `json:"expense_sum_neg"`
	Mean       float64 `json:"mean"`
}

// Summary is the advanced numeric summary. All fields are zero on an empty
// table rather than failing.
type Summary struct {
	Rows         int     `json:"rows"`
	NetSum       float64 `json:"net_sum"`
	AbsSum       float64 `json:"abs_sum"`
	IncomePos    float64 `json:"income_sum_pos"`
	ExpenseNeg   float64 `json:"expense_sum_neg"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Std          float64 `json:"std"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	IncomeCount  int     `json:"income_count"`
	ExpenseCount int     `json:"expense_count"`
}

// TimeBucket is one time bucket of an aggregation. AbsTotal is the absolute
// value of the bucket sum.
type TimeBucket struct {
	Period   time.Time `json:"period"`
	Total    float64   `json:"total_amount"`
	AbsTotal float64   `json:"abs_total"`
}

// BreakdownSlice is one labeled slice of a pie or bar breakdown.
type BreakdownSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ComputeTotals returns row count, sum, positive sum, negative sum, and mean.
func (t *Table) ComputeTotals() Totals {
	out := Totals{Rows: len(t.Rows)}
	for _, r := range t.Rows {
		out.Sum += r.Amount
		if r.Amount > 0 {
			out.IncomePos += r.Amount
		} else if r.Amount < 0 {
			out.ExpenseNeg += r.Amount
		}
	}
	if out.Rows > 0 {
		out.Mean = out.Sum / float64(out.Rows)
	}
	return out
}

// ComputeSummary returns the advanced numeric summary: totals plus median,
// sample standard deviation, min, max, and sign counts.
func (t *Table) ComputeSummary() Summary {
	out := Summary{Rows: len(t.Rows)}
	if len(t.Rows) == 0 {
		return out
	}

	amounts := make([]float64, len(t.Rows))
	out.Min = t.Rows[0].Amount
	out.Max = t.Rows[0].Amount
	for i, r := range t.Rows {
		amounts[i] = r.Amount
		out.NetSum += r.Amount
		out.AbsSum += math.Abs(r.Amount)
		if r.Amount > 0 {
			out.IncomePos += r.Amount
			out.IncomeCount++
		} else if r.Amount < 0 {
			out.ExpenseNeg += r.Amount
			out.ExpenseCount++
		}
		if r.Amount < out.Min {
			out.Min = r.Amount
		}
		if r.Amount > out.Max {
			out.Max = r.Amount
		}
	}
	out.Mean = out.NetSum / float64(len(amounts))
	out.Median = median(amounts)
	out.Std = sampleStdDev(amounts, out.Mean)
	return out
}

// Aggregate groups rows into time buckets at the given granularity and sums
// the amount per bucket. Buckets with no rows are not synthesized; the result
// is sparse and ordered by period ascending.
func (t *Table) Aggregate(freq Frequency) ([]TimeBucket, error) {
	trunc, err := truncator(freq)
	if err != nil {
		return nil, err
	}

	sums := make(map[int64]*TimeBucket)
	for _, r := range t.Rows {
		p := trunc(r.Time)
		key := p.Unix()
		b, ok := sums[key]
		if !ok {
			b = &TimeBucket{Period: p}
			sums[key] = b
		}
		b.Total += r.Amount
	}

	out := make([]TimeBucket, 0, len(sums))
	for _, b := range sums {
		b.AbsTotal = math.Abs(b.Total)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func truncator(freq Frequency) (func(time.Time) time.Time, error) {
	switch freq {
	case FreqHour:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
		}, nil
	case FreqDay:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}, nil
	case FreqMonth:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		}, nil
	default:
		return nil, fmt.Errorf("unknown aggregation frequency %q", freq)
	}
}

// FrequencyForGroup maps a routed group intent to an aggregation frequency.
// GroupAuto and GroupCategory fall back to daily.
func FrequencyForGroup(g models.GroupKind) Frequency {
	switch g {
	case models.GroupHour:
		return FreqHour
	case models.GroupMonth:
		return FreqMonth
	default:
		return FreqDay
	}
}

// PieBreakdown groups amounts for a pie chart. With a category column, groups
// by category; otherwise by calendar month derived from the datetime column.
// Group sums are taken as absolute values, sorted descending, and truncated
// to topN (DefaultPieTop when topN <= 0). Returns an empty result and empty
// title only when the table has no rows.
func (t *Table) PieBreakdown(topN int) ([]BreakdownSlice, string) {
	if len(t.Rows) == 0 {
		return nil, ""
	}
	if topN <= 0 {
		topN = DefaultPieTop
	}
	if t.CategoryColumn != "" {
		return t.groupAbs(func(r Row) string { return t.Category(r) }, topN), "By category (absolute amount)"
	}
	return t.groupAbs(func(r Row) string { return r.Time.Format("2006-01") }, topN), "By month (absolute amount)"
}

// CategoryBreakdown groups absolute amounts by category for bar charts,
// truncated to topN (DefaultCategoryTop when topN <= 0). Returns an empty
// result when the table has no category column.
func (t *Table) CategoryBreakdown(topN int) ([]BreakdownSlice, string) {
	if t.CategoryColumn == "" {
		return nil, ""
	}
	if topN <= 0 {
		topN = DefaultCategoryTop
	}
	return t.groupAbs(func(r Row) string { return t.Category(r) }, topN), "Top categories (absolute amount)"
}

// groupAbs sums amounts per label, takes the absolute value of each group
// sum, and returns the topN groups by value descending. Label order is
// first-seen row order, kept stable through the sort, so output is
// deterministic.
func (t *Table) groupAbs(label func(Row) string, topN int) []BreakdownSlice {
	order := make([]string, 0)
	sums := make(map[string]float64)
	for _, r := range t.Rows {
		l := label(r)
		if _, ok := sums[l]; !ok {
			order = append(order, l)
		}
		sums[l] += r.Amount
	}

	out := make([]BreakdownSlice, 0, len(order))
	for _, l := range order {
		out = append(out, BreakdownSlice{Label: l, Value: math.Abs(sums[l])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// TopTransactions splits rows into income (amount > 0) and expense
// (amount < 0) subsets over the datetime-sorted base. Income is sorted by
// amount descending, expense ascending (most negative first); ties keep the
// datetime order. Both lists are truncated to n (DefaultTopN when n <= 0).
func (t *Table) TopTransactions(n int) (income, expense []Row) {
	if n <= 0 {
		n = DefaultTopN
	}
	base := make([]Row, len(t.Rows))
	copy(base, t.Rows)
	sort.SliceStable(base, func(i, j int) bool { return base[i].Time.Before(base[j].Time) })

	for _, r := range base {
		if r.Amount > 0 {
			income = append(income, r)
		} else if r.Amount < 0 {
			expense = append(expense, r)
		}
	}
	sort.SliceStable(income, func(i, j int) bool { return income[i].Amount > income[j].Amount })
	sort.SliceStable(expense, func(i, j int) bool { return expense[i].Amount < expense[j].Amount })
	if len(income) > n {
		income = income[:n]
	}
	if len(expense) > n {
		expense = expense[:n]
	}
	return income, expense
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStdDev uses the N-1 denominator; 0 when fewer than 2 values.
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
