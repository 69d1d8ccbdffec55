package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements the Reviewer interface for Ollama and LM Studio (OpenAI-compatible API).
type Ollama struct {
	chatClient
}

// NewOllama creates a new Ollama provider. No API key is required by default.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	// Optional API key for servers that require it (e.g., LM Studio)
	apiKey := os.Getenv("REVIEWGATE_OLLAMA_API_KEY")

	return &Ollama{chatClient{
		apiKey: apiKey,
		model:  model,
		url:    completionsURL(baseURL),
		client: &http.Client{Timeout: 300 * time.Second},
		guard:  newGuard("ollama"),
	}}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	resp, err := o.complete(ctx, req)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("ollama: %w", err)
	}
	return resp, nil
}
