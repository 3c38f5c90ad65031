// Package storage persists document records and chat transcripts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tmakino/ledgerlens/internal/models"
)

// SQLiteStorage stores document records and chat turns.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		pages INTEGER NOT NULL,
		passages INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chat_turns_document ON chat_turns(document_id, id);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertDocument inserts or refreshes a document record keyed by content hash.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *models.DocumentRecord) error {
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, pages, passages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, pages = excluded.pages,
		   passages = excluded.passages, updated_at = excluded.updated_at`,
		doc.ID, doc.Name, doc.Pages, doc.Passages, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

// GetDocument returns a document record by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.DocumentRecord, error) {
	var doc models.DocumentRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, pages, passages, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Name, &doc.Pages, &doc.Passages, &doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns document records, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, limit int) ([]*models.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, pages, passages, created_at, updated_at
		 FROM documents ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.DocumentRecord
	for rows.Next() {
		var doc models.DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Pages, &doc.Passages, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// AppendChatTurn records one turn of the chat transcript for a document.
func (s *SQLiteStorage) AppendChatTurn(ctx context.Context, documentID string, turn models.ChatTurn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_turns (document_id, role, content, created_at)
		 VALUES (?, ?, ?, ?)`,
		documentID, turn.Role, turn.Content, time.Now(),
	)
	return err
}

// GetChatHistory returns the transcript for a document in insertion order.
func (s *SQLiteStorage) GetChatHistory(ctx context.Context, documentID string) ([]models.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM chat_turns WHERE document_id = ? ORDER BY id`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var turn models.ChatTurn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// ClearChatHistory removes the transcript for a document. Called when the
// document content changes, since old answers no longer match the new index.
func (s *SQLiteStorage) ClearChatHistory(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE document_id = ?`, documentID)
	return err
}

// CountDocuments returns the total number of document records.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
