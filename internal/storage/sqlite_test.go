package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tmakino/ledgerlens/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "sub", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetDocument(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.DocumentRecord{ID: "abc123", Name: "statement.pdf", Pages: 4, Passages: 12}
	if err := s.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "statement.pdf" || got.Pages != 4 || got.Passages != 12 {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	// Same ID again updates in place.
	doc.Passages = 20
	if err := s.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetDocument(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Passages != 20 {
		t.Errorf("Passages=%d after upsert", got.Passages)
	}

	count, err := s.CountDocuments(ctx)
	if err != nil || count != 1 {
		t.Errorf("count=%d, err=%v", count, err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetDocument(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestChatHistory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.UpsertDocument(ctx, &models.DocumentRecord{ID: "doc1", Name: "a.pdf"}); err != nil {
		t.Fatal(err)
	}
	turns := []models.ChatTurn{
		{Role: "user", Content: "what is the total?"},
		{Role: "assistant", Content: "The total is $120."},
		{Role: "user", Content: "and in March?"},
	}
	for _, turn := range turns {
		if err := s.AppendChatTurn(ctx, "doc1", turn); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetChatHistory(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("turns=%d", len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Errorf("turn %d=%+v, want %+v", i, got[i], turns[i])
		}
	}

	if err := s.ClearChatHistory(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetChatHistory(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("history not cleared: %d turns", len(got))
	}
}

func TestListDocuments(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2", "d3"} {
		if err := s.UpsertDocument(ctx, &models.DocumentRecord{ID: id, Name: id + ".pdf"}); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := s.ListDocuments(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("docs=%d, want limit 2", len(docs))
	}
}
