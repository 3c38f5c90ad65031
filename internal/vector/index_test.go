package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/tmakino/ledgerlens/internal/models"
)

func TestInnerProduct(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0.6, 0.8, 0}
	if got := InnerProduct(a, a); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("self product=%f, want 1", got)
	}
	if got := InnerProduct(a, b); math.Abs(got-0.6) > 1e-6 {
		t.Errorf("product=%f, want 0.6", got)
	}
	if got := InnerProduct(a, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should give 0, got %f", got)
	}
}

func TestNewRejectsBadDimensions(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("dimensions 0 should fail")
	}
	if _, err := New(-3); err == nil {
		t.Error("negative dimensions should fail")
	}
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	passages := []models.Passage{
		{ID: "a", Page: 1, Text: "[page 1] alpha"},
		{ID: "b", Page: 1, Text: "[page 1] beta"},
		{ID: "c", Page: 2, Text: "[page 2] gamma"},
	}
	if err := ix.Add(context.Background(), vectors, passages); err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestSearchOrdering(t *testing.T) {
	ix := testIndex(t)
	got, err := ix.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("results=%d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("order=%s,%s, want a,c", got[0].ID, got[1].ID)
	}
	if got[0].Score < got[1].Score {
		t.Error("scores not descending")
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ix, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	vectors := [][]float32{{0, 1}, {0, 1}, {1, 0}}
	passages := []models.Passage{{ID: "first"}, {ID: "second"}, {ID: "hit"}}
	if err := ix.Add(context.Background(), vectors, passages); err != nil {
		t.Fatal(err)
	}
	got, err := ix.Search(context.Background(), []float32{0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("tied entries reordered: %s,%s", got[0].ID, got[1].ID)
	}
}

func TestSearchTopKBounds(t *testing.T) {
	ix := testIndex(t)
	got, err := ix.Search(context.Background(), []float32{1, 0, 0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("topK beyond size should return all, got %d", len(got))
	}
	got, err = ix.Search(context.Background(), []float32{1, 0, 0}, 0)
	if err != nil || got != nil {
		t.Errorf("topK 0 should return nothing, got %v, %v", got, err)
	}
}

func TestAddMismatches(t *testing.T) {
	ix, _ := New(3)
	err := ix.Add(context.Background(), [][]float32{{1, 0, 0}}, nil)
	if err == nil {
		t.Error("count mismatch should fail")
	}
	err = ix.Add(context.Background(), [][]float32{{1, 0}}, []models.Passage{{ID: "x"}})
	if err == nil {
		t.Error("dimension mismatch should fail")
	}
	if _, err := ix.Search(context.Background(), []float32{1}, 5); err == nil {
		t.Error("query dimension mismatch should fail")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	ix := testIndex(t)
	path := filepath.Join(t.TempDir(), "sub", "index.bin")
	if err := ix.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 3 {
		t.Fatalf("loaded size=%d", loaded.Size())
	}
	got, err := loaded.Search(context.Background(), []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "a" || got[0].Page != 1 || got[0].Text != "[page 1] alpha" {
		t.Errorf("loaded passage=%+v", got[0].Passage)
	}
}

func TestLoadMissingFileIsNoop(t *testing.T) {
	ix, _ := New(3)
	if err := ix.Load(filepath.Join(t.TempDir(), "absent.bin")); err != nil {
		t.Fatal(err)
	}
	if ix.Size() != 0 {
		t.Error("index should stay empty")
	}
}

func TestLoadDimensionMismatch(t *testing.T) {
	ix := testIndex(t)
	path := filepath.Join(t.TempDir(), "index.bin")
	if err := ix.Save(path); err != nil {
		t.Fatal(err)
	}
	other, _ := New(5)
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
