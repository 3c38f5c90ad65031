// Package session holds the working state for one loaded document: its
// passages, retrieval indexes, detected transaction table, and chat history.
// Loading a new document replaces the state wholesale; the last writer wins.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/tmakino/ledgerlens/internal/config"
	"github.com/tmakino/ledgerlens/internal/embedding"
	"github.com/tmakino/ledgerlens/internal/extract"
	"github.com/tmakino/ledgerlens/internal/finance"
	"github.com/tmakino/ledgerlens/internal/keyword"
	"github.com/tmakino/ledgerlens/internal/models"
	"github.com/tmakino/ledgerlens/internal/passage"
	"github.com/tmakino/ledgerlens/internal/router"
	"github.com/tmakino/ledgerlens/internal/storage"
	"github.com/tmakino/ledgerlens/internal/vector"
)

// Status summarizes the loaded document.
type Status struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Pages      int    `json:"pages"`
	Passages   int    `json:"passages"`
	HasTable   bool   `json:"has_table"`
	Retrieval  string `json:"retrieval"`
}

// Session is the per-document pipeline state. Store may be nil; persistence
// is then skipped.
type Session struct {
	cfg       *config.Config
	log       *zap.Logger
	extractor *extract.Extractor
	embedder  embedding.Embedder
	router    *router.Router
	store     *storage.SQLiteStorage

	mu       sync.Mutex
	docID    string
	docName  string
	pages    int
	passages []models.Passage
	vecIndex *vector.Index
	kwIndex  *keyword.Index
	table    *finance.Table
	history  []models.ChatTurn
}

// New creates a session. embedder may be nil, in which case retrieval uses
// the keyword index. rtr must not be nil.
func New(cfg *config.Config, embedder embedding.Embedder, rtr *router.Router, store *storage.SQLiteStorage, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		cfg:       cfg,
		log:       log,
		extractor: extract.NewExtractor(cfg.Extract.MaxPages),
		embedder:  embedder,
		router:    rtr,
		store:     store,
	}
}

// Fingerprint returns the hex SHA-256 of content, used as the document ID.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// LoadFile ingests the document at path. If the content hash matches the
// currently loaded document, the call is a no-op; otherwise the session is
// rebuilt and any previous state is discarded.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	docID := Fingerprint(content)

	s.mu.Lock()
	unchanged := docID == s.docID
	s.mu.Unlock()
	if unchanged {
		s.log.Debug("document unchanged, keeping session", zap.String("doc_id", docID))
		return nil
	}
	return s.rebuild(ctx, path, docID)
}

func (s *Session) rebuild(ctx context.Context, path, docID string) error {
	name := filepath.Base(path)
	log := s.log.With(zap.String("doc_id", docID), zap.String("name", name))
	log.Info("rebuilding session")

	pages, err := s.extractor.Text(path)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	passages, err := passage.Build(pages, s.cfg.RAG.ChunkSize, s.cfg.RAG.ChunkOverlap)
	if err != nil {
		return err
	}

	var vecIndex *vector.Index
	var kwIndex *keyword.Index
	fromSnapshot := false
	if s.embedder != nil {
		vecIndex, fromSnapshot = s.loadSnapshot(docID, len(passages))
		if vecIndex == nil {
			vecIndex, err = s.buildVectorIndex(ctx, passages)
			if err != nil {
				return err
			}
		} else {
			log.Info("reusing index snapshot", zap.Int("passages", vecIndex.Size()))
		}
	} else {
		kwIndex, err = keyword.NewMemIndex()
		if err != nil {
			return fmt.Errorf("create keyword index: %w", err)
		}
		if err := kwIndex.Add(ctx, passages); err != nil {
			kwIndex.Close()
			return fmt.Errorf("index passages: %w", err)
		}
	}

	grids, err := s.extractor.Tables(path)
	if err != nil {
		log.Warn("table extraction failed, continuing without finance view", zap.Error(err))
		grids = nil
	}
	raw := make([]models.RawGrid, len(grids))
	for i, g := range grids {
		raw[i] = g.Grid
	}
	table := finance.SelectTable(raw)
	if table == nil {
		log.Info("no transaction table detected")
	} else {
		log.Info("transaction table detected",
			zap.Int("rows", len(table.Rows)),
			zap.String("category_column", table.CategoryColumn))
	}

	s.mu.Lock()
	if s.kwIndex != nil {
		_ = s.kwIndex.Close()
	}
	s.docID = docID
	s.docName = name
	s.pages = len(pages)
	s.passages = passages
	s.vecIndex = vecIndex
	s.kwIndex = kwIndex
	s.table = table
	s.history = nil
	s.mu.Unlock()

	if s.store != nil {
		rec := &models.DocumentRecord{ID: docID, Name: name, Pages: len(pages), Passages: len(passages)}
		if err := s.store.UpsertDocument(ctx, rec); err != nil {
			log.Warn("persist document record failed", zap.Error(err))
		}
		if err := s.store.ClearChatHistory(ctx, docID); err != nil {
			log.Warn("clear persisted chat failed", zap.Error(err))
		}
	}
	if vecIndex != nil && !fromSnapshot && s.cfg.Storage.IndexDir != "" {
		if err := vecIndex.Save(s.snapshotPath(docID)); err != nil {
			log.Warn("save index snapshot failed", zap.Error(err))
		}
	}

	log.Info("session ready", zap.Int("pages", len(pages)), zap.Int("passages", len(passages)))
	return nil
}

func (s *Session) snapshotPath(docID string) string {
	return filepath.Join(s.cfg.Storage.IndexDir, docID+".vec")
}

// loadSnapshot restores a saved index for docID so reloading an unchanged
// document after a restart skips re-embedding. The snapshot is only trusted
// when its passage count matches the fresh extraction.
func (s *Session) loadSnapshot(docID string, wantPassages int) (*vector.Index, bool) {
	if s.cfg.Storage.IndexDir == "" || wantPassages == 0 {
		return nil, false
	}
	ix, err := vector.New(s.embedder.Dimensions())
	if err != nil {
		return nil, false
	}
	if err := ix.Load(s.snapshotPath(docID)); err != nil {
		s.log.Warn("load index snapshot failed", zap.Error(err))
		return nil, false
	}
	if ix.Size() != wantPassages {
		return nil, false
	}
	return ix, true
}

func (s *Session) buildVectorIndex(ctx context.Context, passages []models.Passage) (*vector.Index, error) {
	ix, err := vector.New(s.embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return ix, nil
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if err := ix.Add(ctx, vectors, passages); err != nil {
		return nil, err
	}
	return ix, nil
}

// Ask answers a chat question against the loaded document and appends both
// turns to the history. Returns the answer and whether the oracle produced it.
func (s *Session) Ask(ctx context.Context, question string) (string, bool, error) {
	s.mu.Lock()
	if s.docID == "" {
		s.mu.Unlock()
		return "", false, fmt.Errorf("no document loaded")
	}
	docID := s.docID
	vecIndex := s.vecIndex
	kwIndex := s.kwIndex
	s.mu.Unlock()

	retrieved, err := s.retrieve(ctx, question, vecIndex, kwIndex)
	if err != nil {
		return "", false, err
	}

	answer, usedLLM := s.router.Answer(ctx, question, retrieved)

	s.mu.Lock()
	// Drop the turns if another document replaced this one mid-question.
	if s.docID == docID {
		s.history = append(s.history,
			models.ChatTurn{Role: "user", Content: question},
			models.ChatTurn{Role: "assistant", Content: answer},
		)
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.AppendChatTurn(ctx, docID, models.ChatTurn{Role: "user", Content: question}); err != nil {
			s.log.Warn("persist chat turn failed", zap.Error(err))
		}
		if err := s.store.AppendChatTurn(ctx, docID, models.ChatTurn{Role: "assistant", Content: answer}); err != nil {
			s.log.Warn("persist chat turn failed", zap.Error(err))
		}
	}
	return answer, usedLLM, nil
}

func (s *Session) retrieve(ctx context.Context, question string, vecIndex *vector.Index, kwIndex *keyword.Index) ([]models.RetrievedPassage, error) {
	q := router.NormalizeQuestion(question)
	if q == "" {
		q = question
	}
	topK := s.cfg.RAG.TopK

	if vecIndex != nil {
		qv, err := s.embedder.Embed(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		return vecIndex.Search(ctx, qv, topK)
	}
	if kwIndex != nil {
		return kwIndex.Search(ctx, q, topK)
	}
	return nil, nil
}

// Table returns the detected transaction table, nil when none was found.
func (s *Session) Table() *finance.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// History returns a copy of the in-memory chat transcript.
func (s *Session) History() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// Status reports the loaded document and retrieval mode.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	retrieval := "none"
	if s.vecIndex != nil {
		retrieval = "vector"
	} else if s.kwIndex != nil {
		retrieval = "keyword"
	}
	return Status{
		DocumentID: s.docID,
		Name:       s.docName,
		Pages:      s.pages,
		Passages:   len(s.passages),
		HasTable:   s.table != nil,
		Retrieval:  retrieval,
	}
}

// Close releases index resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kwIndex != nil {
		err := s.kwIndex.Close()
		s.kwIndex = nil
		return err
	}
	return nil
}
