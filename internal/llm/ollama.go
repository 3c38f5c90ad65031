package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmakino/ledgerlens/internal/config"
)

// Ollama calls a local Ollama server's generate API.
type Ollama struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOllama creates an Ollama oracle.
func NewOllama(cfg config.OllamaConfig) *Ollama {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Ollama{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends the prompt and returns the full non-streamed response.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{NumPredict: o.maxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal Ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create Ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call Ollama: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode Ollama response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// Name identifies the provider.
func (o *Ollama) Name() string {
	return "ollama"
}
