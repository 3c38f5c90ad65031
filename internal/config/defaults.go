package config

import "os"

// ApplyDefaults sets default values for any zero values in cfg.
// API keys fall back to the conventional environment variables so that a
// config file never has to contain secrets.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ledgerlens/ledgerlens.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/ledgerlens/index"
	}
	if cfg.Extract.MaxPages == 0 {
		cfg.Extract.MaxPages = 50
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1200
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 150
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 6
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "none"
	}
	if cfg.LLM.Gemini.APIKey == "" {
		cfg.LLM.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.LLM.Gemini.Model == "" {
		cfg.LLM.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.Gemini.BaseURL == "" {
		cfg.LLM.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.LLM.Gemini.MaxTokens == 0 {
		cfg.LLM.Gemini.MaxTokens = 1024
	}
	if cfg.LLM.Gemini.Temperature == 0 {
		cfg.LLM.Gemini.Temperature = 0.2
	}
	if cfg.LLM.Gemini.TimeoutSeconds == 0 {
		cfg.LLM.Gemini.TimeoutSeconds = 60
	}
	if cfg.LLM.OpenAI.APIKey == "" {
		cfg.LLM.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.OpenAI.Model == "" {
		cfg.LLM.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.LLM.OpenAI.BaseURL == "" {
		cfg.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.OpenAI.Temperature == 0 {
		cfg.LLM.OpenAI.Temperature = 0.2
	}
	if cfg.LLM.OpenAI.TimeoutSeconds == 0 {
		cfg.LLM.OpenAI.TimeoutSeconds = 60
	}
	if cfg.LLM.Ollama.URL == "" {
		cfg.LLM.Ollama.URL = "http://localhost:11434"
	}
	if cfg.LLM.Ollama.Model == "" {
		cfg.LLM.Ollama.Model = "llama3.1"
	}
	if cfg.LLM.Ollama.MaxTokens == 0 {
		cfg.LLM.Ollama.MaxTokens = 256
	}
	if cfg.LLM.Ollama.TimeoutSeconds == 0 {
		cfg.LLM.Ollama.TimeoutSeconds = 180
	}
}
