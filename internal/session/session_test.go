package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tmakino/ledgerlens/internal/config"
	"github.com/tmakino/ledgerlens/internal/embedding"
	"github.com/tmakino/ledgerlens/internal/router"
	"github.com/tmakino/ledgerlens/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Storage.DatabasePath = filepath.Join(dir, "test.db")
	cfg.Storage.IndexDir = filepath.Join(dir, "index")
	return cfg
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileAndAsk(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, embedding.NewMockEmbedder(32), router.New(nil, nil), nil, nil)
	defer s.Close()

	path := writeDoc(t, t.TempDir(), "notes.txt",
		"The quarterly revenue was strong. Payment terms are net 30.")
	ctx := context.Background()
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	st := s.Status()
	if st.DocumentID == "" || st.Pages != 1 || st.Passages == 0 {
		t.Fatalf("status=%+v", st)
	}
	if st.Retrieval != "vector" {
		t.Errorf("retrieval=%s", st.Retrieval)
	}
	if st.HasTable {
		t.Error("plain text should not yield a table")
	}

	ans, usedLLM, err := s.Ask(ctx, "what are the payment terms?")
	if err != nil {
		t.Fatal(err)
	}
	if usedLLM {
		t.Error("no oracle configured, answer cannot come from one")
	}
	if !strings.Contains(ans, "[page 1]") {
		t.Errorf("extractive answer should carry passages: %q", ans)
	}

	history := s.History()
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history=%+v", history)
	}
}

func TestLoadFileUnchangedKeepsHistory(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, embedding.NewMockEmbedder(16), router.New(nil, nil), nil, nil)
	defer s.Close()

	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.txt", "Some document content for the index.")
	ctx := context.Background()
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Ask(ctx, "what is this?"); err != nil {
		t.Fatal(err)
	}
	firstID := s.Status().DocumentID

	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if s.Status().DocumentID != firstID {
		t.Error("identical content changed the document ID")
	}
	if len(s.History()) != 2 {
		t.Error("reloading identical content should keep history")
	}

	// Different content resets the session.
	path2 := writeDoc(t, dir, "doc2.txt", "Entirely different content now.")
	if err := s.LoadFile(ctx, path2); err != nil {
		t.Fatal(err)
	}
	if s.Status().DocumentID == firstID {
		t.Error("new content should change the document ID")
	}
	if len(s.History()) != 0 {
		t.Error("new document should clear history")
	}
}

func TestKeywordFallbackWithoutEmbedder(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, nil, router.New(nil, nil), nil, nil)
	defer s.Close()

	path := writeDoc(t, t.TempDir(), "doc.txt", "The invoice total includes a late fee charge.")
	ctx := context.Background()
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if s.Status().Retrieval != "keyword" {
		t.Fatalf("retrieval=%s", s.Status().Retrieval)
	}

	ans, _, err := s.Ask(ctx, "late fee")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ans, "late fee charge") {
		t.Errorf("keyword retrieval missed the passage: %q", ans)
	}
}

func TestSessionDetectsExcelTable(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, embedding.NewMockEmbedder(16), router.New(nil, nil), nil, nil)
	defer s.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"Date", "Amount", "Category"},
		{"2024-01-05", "-50.00", "Food"},
		{"2024-01-06", "200.00", "Salary"},
		{"2024-02-01", "-30.00", "Food"},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue("Sheet1", cell, v)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := s.LoadFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	tbl := s.Table()
	if tbl == nil {
		t.Fatal("expected a detected table")
	}
	if len(tbl.Rows) != 3 || tbl.CategoryColumn != "Category" {
		t.Errorf("table=%+v", tbl)
	}
	if !s.Status().HasTable {
		t.Error("status should report the table")
	}
}

func TestSessionPersistsToStore(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	s := New(cfg, embedding.NewMockEmbedder(16), router.New(nil, nil), store, nil)
	defer s.Close()

	path := writeDoc(t, t.TempDir(), "doc.txt", "Persisted document content.")
	ctx := context.Background()
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Ask(ctx, "what is persisted?"); err != nil {
		t.Fatal(err)
	}

	docID := s.Status().DocumentID
	rec, err := store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "doc.txt" || rec.Passages == 0 {
		t.Errorf("record=%+v", rec)
	}
	turns, err := store.GetChatHistory(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Errorf("persisted turns=%d", len(turns))
	}

	// Index snapshot written under the index dir.
	if _, err := os.Stat(filepath.Join(cfg.Storage.IndexDir, docID+".vec")); err != nil {
		t.Errorf("index snapshot missing: %v", err)
	}
}

// countingEmbedder wraps an embedder and counts batch calls.
type countingEmbedder struct {
	embedding.Embedder
	batches int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches++
	return c.Embedder.EmbedBatch(ctx, texts)
}

func TestSnapshotReuseSkipsEmbedding(t *testing.T) {
	cfg := testConfig(t)
	path := writeDoc(t, t.TempDir(), "doc.txt", "Snapshot reuse document content.")
	ctx := context.Background()

	ce := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	s := New(cfg, ce, router.New(nil, nil), nil, nil)
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if ce.batches != 1 {
		t.Fatalf("batches=%d", ce.batches)
	}

	// A fresh session over the same config and file restores the snapshot.
	s2 := New(cfg, ce, router.New(nil, nil), nil, nil)
	defer s2.Close()
	if err := s2.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if ce.batches != 1 {
		t.Errorf("reload re-embedded, batches=%d", ce.batches)
	}
	if s2.Status().Retrieval != "vector" {
		t.Errorf("retrieval=%s", s2.Status().Retrieval)
	}
	if ans, _, err := s2.Ask(ctx, "snapshot reuse"); err != nil || !strings.Contains(ans, "[page 1]") {
		t.Errorf("ask after restore: ans=%q err=%v", ans, err)
	}
}

func TestAskWithoutDocument(t *testing.T) {
	s := New(testConfig(t), nil, router.New(nil, nil), nil, nil)
	if _, _, err := s.Ask(context.Background(), "anything?"); err == nil {
		t.Error("expected error with no document loaded")
	}
}
