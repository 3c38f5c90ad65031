package finance

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tmakino/ledgerlens/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl := SelectTable([]models.RawGrid{ledgerGrid()})
	if tbl == nil {
		t.Fatal("sample grid did not parse")
	}
	return tbl
}

func TestComputeTotals(t *testing.T) {
	tbl := sampleTable(t)
	got := tbl.ComputeTotals()
	if got.Rows != 3 {
		t.Errorf("Rows=%d", got.Rows)
	}
	if !approx(got.Sum, 120.00) {
		t.Errorf("Sum=%f", got.Sum)
	}
	if !approx(got.IncomePos, 200.00) {
		t.Errorf("IncomePos=%f", got.IncomePos)
	}
	if !approx(got.ExpenseNeg, -80.00) {
		t.Errorf("ExpenseNeg=%f", got.ExpenseNeg)
	}
	if !approx(got.Mean, 40.00) {
		t.Errorf("Mean=%f", got.Mean)
	}
}

func TestComputeSummary(t *testing.T) {
	tbl := sampleTable(t)
	s := tbl.ComputeSummary()
	totals := tbl.ComputeTotals()

	if !approx(s.NetSum, totals.Sum) {
		t.Errorf("NetSum=%f, Totals.Sum=%f", s.NetSum, totals.Sum)
	}
	if !approx(s.IncomePos+s.ExpenseNeg, s.NetSum) {
		t.Errorf("income+expense=%f, net=%f", s.IncomePos+s.ExpenseNeg, s.NetSum)
	}
	if !approx(s.AbsSum, 280.00) {
		t.Errorf("AbsSum=%f", s.AbsSum)
	}
	if !approx(s.Median, -30.00) {
		t.Errorf("Median=%f", s.Median)
	}
	if !approx(s.Min, -50.00) || !approx(s.Max, 200.00) {
		t.Errorf("Min=%f Max=%f", s.Min, s.Max)
	}
	if s.IncomeCount != 1 || s.ExpenseCount != 2 {
		t.Errorf("counts=%d/%d", s.IncomeCount, s.ExpenseCount)
	}
	// Sample std dev with N-1: amounts -50, 200, -30, mean 40.
	want := math.Sqrt((90.0*90 + 160.0*160 + 70.0*70) / 2)
	if !approx(s.Std, want) {
		t.Errorf("Std=%f, want %f", s.Std, want)
	}
}

func TestComputeSummaryEmpty(t *testing.T) {
	tbl := &Table{DatetimeColumn: "Date", AmountColumn: "Amount"}
	s := tbl.ComputeSummary()
	if s.Rows != 0 || s.NetSum != 0 || s.Median != 0 || s.Std != 0 || s.Min != 0 || s.Max != 0 {
		t.Errorf("empty summary should be all zeros: %+v", s)
	}
}

func TestComputeSummaryStdSingleRow(t *testing.T) {
	tbl := &Table{Rows: []Row{{Amount: 5}}}
	if s := tbl.ComputeSummary(); s.Std != 0 {
		t.Errorf("Std=%f, want 0 for a single row", s.Std)
	}
}

func TestAggregateMonthly(t *testing.T) {
	tbl := sampleTable(t)
	buckets, err := tbl.Aggregate(FreqMonth)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 2 {
		t.Fatalf("buckets=%d", len(buckets))
	}
	// Jan: -50 + 200 = 150; Feb: -30.
	if !approx(buckets[0].Total, 150.00) {
		t.Errorf("Jan total=%f", buckets[0].Total)
	}
	if !approx(buckets[1].Total, -30.00) {
		t.Errorf("Feb total=%f", buckets[1].Total)
	}
	if !approx(buckets[1].AbsTotal, 30.00) {
		t.Errorf("Feb abs=%f", buckets[1].AbsTotal)
	}
	if buckets[0].Period.Month() != time.January || buckets[0].Period.Day() != 1 {
		t.Errorf("Jan period=%v", buckets[0].Period)
	}
}

func TestAggregateGranularities(t *testing.T) {
	tbl := sampleTable(t)
	totalSum := tbl.ComputeTotals().Sum
	for _, freq := range []Frequency{FreqHour, FreqDay, FreqMonth} {
		buckets, err := tbl.Aggregate(freq)
		if err != nil {
			t.Fatal(err)
		}
		var sum float64
		for i, b := range buckets {
			sum += b.Total
			if i > 0 && !buckets[i-1].Period.Before(b.Period) {
				t.Errorf("%s: buckets not strictly ascending", freq)
			}
		}
		if !approx(sum, totalSum) {
			t.Errorf("%s: bucket sums=%f, want %f", freq, sum, totalSum)
		}
	}
}

func TestAggregateSparse(t *testing.T) {
	// Jan and March rows; February must not be synthesized.
	grid := models.RawGrid{
		{"Date", "Amount"},
		{"2024-01-01", "1.00"},
		{"2024-01-02", "2.00"},
		{"2024-03-01", "3.00"},
	}
	tbl := SelectTable([]models.RawGrid{grid})
	buckets, err := tbl.Aggregate(FreqMonth)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 2 {
		t.Errorf("buckets=%d, want 2 (no gap-filling)", len(buckets))
	}
}

func TestAggregateUnknownFrequency(t *testing.T) {
	tbl := sampleTable(t)
	if _, err := tbl.Aggregate(Frequency("week")); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestPieBreakdownByCategory(t *testing.T) {
	tbl := sampleTable(t)
	slices, title := tbl.PieBreakdown(0)
	if title != "By category (absolute amount)" {
		t.Errorf("title=%q", title)
	}
	if len(slices) != 2 {
		t.Fatalf("slices=%d", len(slices))
	}
	// Salary |200| outranks Food |-50 + -30| = 80.
	if slices[0].Label != "Salary" || !approx(slices[0].Value, 200.00) {
		t.Errorf("slice0=%+v", slices[0])
	}
	if slices[1].Label != "Food" || !approx(slices[1].Value, 80.00) {
		t.Errorf("slice1=%+v", slices[1])
	}
}

func TestPieBreakdownByMonth(t *testing.T) {
	grid := models.RawGrid{
		{"Date", "Amount"},
		{"2024-01-05", "-50.00"},
		{"2024-01-06", "200.00"},
		{"2024-02-01", "-30.00"},
	}
	tbl := SelectTable([]models.RawGrid{grid})
	if tbl == nil {
		t.Fatal("expected a table")
	}
	tbl.CategoryColumn = ""
	slices, title := tbl.PieBreakdown(0)
	if title != "By month (absolute amount)" {
		t.Errorf("title=%q", title)
	}
	if len(slices) != 2 {
		t.Fatalf("slices=%d", len(slices))
	}
	if slices[0].Label != "2024-01" || !approx(slices[0].Value, 150.00) {
		t.Errorf("slice0=%+v", slices[0])
	}
}

func TestPieBreakdownEmpty(t *testing.T) {
	tbl := &Table{CategoryColumn: "Category"}
	slices, title := tbl.PieBreakdown(0)
	if slices != nil || title != "" {
		t.Errorf("empty table should give empty result and title, got %v %q", slices, title)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	tbl := sampleTable(t)
	slices, title := tbl.CategoryBreakdown(0)
	if title != "Top categories (absolute amount)" {
		t.Errorf("title=%q", title)
	}
	if len(slices) != 2 {
		t.Errorf("slices=%d", len(slices))
	}

	tbl.CategoryColumn = ""
	slices, title = tbl.CategoryBreakdown(0)
	if slices != nil || title != "" {
		t.Error("no category column should give empty result")
	}
}

func TestBreakdownTruncation(t *testing.T) {
	rows := make([]Row, 0, 10)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		rows = append(rows, Row{
			Time:   base.AddDate(0, 0, i),
			Amount: float64(i + 1),
			Cells:  map[string]string{"Category": string(rune('a' + i))},
		})
	}
	tbl := &Table{DatetimeColumn: "Date", AmountColumn: "Amount", CategoryColumn: "Category", Rows: rows}
	slices, _ := tbl.PieBreakdown(0)
	if len(slices) != DefaultPieTop {
		t.Errorf("pie slices=%d, want %d", len(slices), DefaultPieTop)
	}
	slices, _ = tbl.CategoryBreakdown(3)
	if len(slices) != 3 {
		t.Errorf("category slices=%d, want 3", len(slices))
	}
}

func TestTopTransactions(t *testing.T) {
	tbl := sampleTable(t)
	income, expense := tbl.TopTransactions(10)
	if len(income) != 1 || len(expense) != 2 {
		t.Fatalf("income=%d expense=%d", len(income), len(expense))
	}
	for i := 1; i < len(income); i++ {
		if income[i].Amount > income[i-1].Amount {
			t.Error("income not non-increasing")
		}
	}
	for i := 1; i < len(expense); i++ {
		if expense[i].Amount < expense[i-1].Amount {
			t.Error("expense not non-decreasing")
		}
	}
	if !approx(expense[0].Amount, -50.00) {
		t.Errorf("most negative first, got %f", expense[0].Amount)
	}

	income, expense = tbl.TopTransactions(1)
	if len(income) != 1 || len(expense) != 1 {
		t.Errorf("truncation failed: %d/%d", len(income), len(expense))
	}
}

func TestAnalyticsIdempotent(t *testing.T) {
	grids := []models.RawGrid{ledgerGrid()}
	a := SelectTable(grids)
	b := SelectTable(grids)
	if !reflect.DeepEqual(a, b) {
		t.Error("SelectTable is not deterministic")
	}

	agg1, _ := a.Aggregate(FreqMonth)
	agg2, _ := a.Aggregate(FreqMonth)
	if !reflect.DeepEqual(agg1, agg2) {
		t.Error("Aggregate is not deterministic")
	}

	p1, t1 := a.PieBreakdown(0)
	p2, t2 := a.PieBreakdown(0)
	if !reflect.DeepEqual(p1, p2) || t1 != t2 {
		t.Error("PieBreakdown is not deterministic")
	}
}
