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

const openAISystemPrompt = "You answer user questions about an uploaded PDF using provided context."

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// NewOpenAI creates an OpenAI oracle. The API key is required.
func NewOpenAI(cfg config.OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set llm.openai.api_key or OPENAI_API_KEY)")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt as a user message and returns the first choice.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal OpenAI request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create OpenAI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call OpenAI: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode OpenAI response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("OpenAI returned status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("OpenAI returned status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Name identifies the provider.
func (o *OpenAI) Name() string {
	return "openai"
}
