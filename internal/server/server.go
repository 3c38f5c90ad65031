// Package server provides the HTTP API for LedgerLens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tmakino/ledgerlens/internal/config"
	"github.com/tmakino/ledgerlens/internal/session"
	"github.com/tmakino/ledgerlens/internal/storage"
)

// Server is the HTTP server for the LedgerLens API.
type Server struct {
	session *session.Session
	storage *storage.SQLiteStorage
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server

	uploadDir string
}

// NewServer creates a server with the given dependencies. storage may be nil.
func NewServer(
	sess *session.Session,
	store *storage.SQLiteStorage,
	cfg *config.ServerConfig,
	uploadDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		session:   sess,
		storage:   store,
		config:    cfg,
		logger:    logger,
		uploadDir: uploadDir,
	}
}

// Routes builds the router. Exposed for handler tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleUploadDocument)
	r.Post("/api/v1/ask", s.handleAsk)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/finance", s.handleFinance)
	r.Get("/api/v1/finance/aggregate", s.handleFinanceAggregate)
	r.Post("/api/v1/finance/query", s.handleFinanceQuery)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
