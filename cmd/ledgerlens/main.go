// Package main is the LedgerLens CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tmakino/ledgerlens/internal/config"
	"github.com/tmakino/ledgerlens/internal/embedding"
	"github.com/tmakino/ledgerlens/internal/finance"
	"github.com/tmakino/ledgerlens/internal/llm"
	"github.com/tmakino/ledgerlens/internal/router"
	"github.com/tmakino/ledgerlens/internal/server"
	"github.com/tmakino/ledgerlens/internal/session"
	"github.com/tmakino/ledgerlens/internal/storage"
	"github.com/tmakino/ledgerlens/internal/watcher"
	"github.com/tmakino/ledgerlens/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ledgerlens/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. A missing default config falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "analyze":
		runAnalyze()
	case "version", "--version", "-v":
		fmt.Printf("ledgerlens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ledgerlens - document chat and transaction analytics

Usage:
  ledgerlens server [-config path] [-file document] [-debug]
  ledgerlens ask -file document [-config path] <question>
  ledgerlens analyze -file document [-config path] [-freq hour|day|month] [request]
  ledgerlens version
  ledgerlens help

Commands:
  server    Start the HTTP API server. With -file, the document is loaded at
            startup and reloaded when it changes on disk.
  ask       Load a document and answer one question about it.
  analyze   Load a document, detect its transaction table, and print
            totals, summary, and time-bucket aggregates as JSON.`)
}

// newSession builds the embedder, oracle, and session from config.
func newSession(cfg *config.Config, store *storage.SQLiteStorage, logger *zap.Logger) (*session.Session, error) {
	embedder, err := embedding.New(
		cfg.Embedding.Provider,
		cfg.Embedding.URL,
		cfg.Embedding.Model,
		cfg.Embedding.Dimensions,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	oracle, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm: %w", err)
	}
	rtr := router.New(oracle, logger)
	return session.New(cfg, embedder, rtr, store, logger), nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "document to load at startup and watch for changes")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	sess, err := newSession(cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session", zap.Error(err))
	}
	defer sess.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if *file != "" {
		if err := sess.LoadFile(watchCtx, *file); err != nil {
			logger.Fatal("Failed to load document", zap.String("file", *file), zap.Error(err))
		}
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.New(*file, func(path string) {
			if err := sess.LoadFile(context.Background(), path); err != nil {
				logger.Warn("watch reload failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	uploadDir := filepath.Join(filepath.Dir(cfg.Storage.DatabasePath), "uploads")
	srv := server.NewServer(sess, store, &cfg.Server, uploadDir, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "document to load (required)")
	_ = fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *file == "" || question == "" {
		fmt.Println("Usage: ledgerlens ask -file document <question>")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sess, err := newSession(cfg, nil, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session", zap.Error(err))
	}
	defer sess.Close()

	ctx := context.Background()
	if err := sess.LoadFile(ctx, *file); err != nil {
		logger.Fatal("Failed to load document", zap.Error(err))
	}
	answer, usedLLM, err := sess.Ask(ctx, question)
	if err != nil {
		logger.Fatal("Failed to answer", zap.Error(err))
	}
	fmt.Println(answer)
	if !usedLLM {
		fmt.Fprintln(os.Stderr, "(extractive answer)")
	}
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "document to load (required)")
	freq := fs.String("freq", "month", "aggregation frequency: hour, day, or month")
	_ = fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Println("Usage: ledgerlens analyze -file document [-freq hour|day|month] [request]")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Analytics needs no retrieval stack; skip embedding entirely.
	cfg.Embedding.Provider = "none"
	cfg.LLM.Provider = "none"

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sess, err := newSession(cfg, nil, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session", zap.Error(err))
	}
	defer sess.Close()

	ctx := context.Background()
	if err := sess.LoadFile(ctx, *file); err != nil {
		logger.Fatal("Failed to load document", zap.Error(err))
	}
	tbl := sess.Table()
	if tbl == nil {
		fmt.Fprintln(os.Stderr, "No transaction table detected in the document.")
		os.Exit(1)
	}

	buckets, err := tbl.Aggregate(finance.Frequency(*freq))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregate failed: %v\n", err)
		os.Exit(1)
	}
	out := map[string]any{
		"datetime_column": tbl.DatetimeColumn,
		"amount_column":   tbl.AmountColumn,
		"category_column": tbl.CategoryColumn,
		"totals":          tbl.ComputeTotals(),
		"summary":         tbl.ComputeSummary(),
		"buckets":         buckets,
	}
	if request := strings.TrimSpace(strings.Join(fs.Args(), " ")); request != "" {
		out["intent"] = router.ParseFinanceRequest(request)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Encode failed: %v\n", err)
		os.Exit(1)
	}
}
