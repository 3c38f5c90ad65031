package embedding

import "fmt"

// New constructs an embedder for the named provider. Provider "none" returns
// a nil embedder, which callers treat as "retrieval falls back to keyword
// search". Provider "mock" is for tests and offline runs.
func New(provider, url, model string, dimensions, cacheSize int) (Embedder, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "ollama":
		return NewOllamaEmbedder(url, model, dimensions, cacheSize)
	case "mock":
		return NewMockEmbedder(dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
