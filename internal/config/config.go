// Package config provides configuration loading and structs for LedgerLens.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Extract   ExtractConfig   `yaml:"extract"`
	RAG       RAGConfig       `yaml:"rag"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and index snapshots.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexDir     string `yaml:"index_dir"`
}

// ExtractConfig holds document extraction settings.
type ExtractConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// RAGConfig holds passage chunking and retrieval settings.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// EmbeddingConfig holds embedder settings. Provider is one of
// "ollama", "mock", or "none"; with "none" retrieval falls back to the
// keyword index.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	URL        string `yaml:"url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig selects the single active answer oracle and its settings.
// Provider is one of "gemini", "openai", "ollama", or "none".
type LLMConfig struct {
	Provider string       `yaml:"provider"`
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// OpenAIConfig holds OpenAI chat settings.
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	URL            string `yaml:"url"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands storage paths. Unknown keys in the file are ignored.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)

	return &cfg, nil
}

// Default returns a config with all defaults applied and no file involved.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
