package extract

import (
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestSplitRowCells(t *testing.T) {
	// "2024-01-05" then, after a wide gap, "-50.00" split across two texts.
	row := pdf.TextHorizontal{
		{X: 10, W: 60, S: "2024-01-05"},
		{X: 120, W: 20, S: "-50"},
		{X: 140, W: 15, S: ".00"},
	}
	got := splitRowCells(row)
	want := []string{"2024-01-05", "-50.00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cells=%v, want %v", got, want)
	}
}

func TestSplitRowCellsSingle(t *testing.T) {
	row := pdf.TextHorizontal{{X: 10, W: 30, S: "Header"}}
	got := splitRowCells(row)
	if len(got) != 1 || got[0] != "Header" {
		t.Errorf("cells=%v", got)
	}
}

func TestSplitRowCellsEmpty(t *testing.T) {
	if got := splitRowCells(nil); len(got) != 0 {
		t.Errorf("cells=%v", got)
	}
}
