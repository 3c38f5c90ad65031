package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tmakino/ledgerlens/pkg/utils"
)

// OllamaEmbedder produces embeddings by calling a local Ollama server.
// Vectors are L2-normalized before being returned so that inner product equals
// cosine similarity. Results are cached by text.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	cache      *EmbeddingCache
}

// NewOllamaEmbedder creates an embedder against the given Ollama base URL.
func NewOllamaEmbedder(baseURL, model string, dimensions, cacheSize int) (*OllamaEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	return &OllamaEmbedder{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
		cache:      NewEmbeddingCache(cacheSize),
	}, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the normalized embedding for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call Ollama: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embedding) != e.dimensions {
		return nil, fmt.Errorf("model %s returned %d dimensions, expected %d", e.model, len(out.Embedding), e.dimensions)
	}

	utils.NormalizeL2(out.Embedding)
	e.cache.Set(text, out.Embedding)
	return out.Embedding, nil
}

// EmbedBatch embeds each text sequentially.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the configured embedding dimensionality.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the embedder holds no persistent resources.
func (e *OllamaEmbedder) Close() error {
	return nil
}
