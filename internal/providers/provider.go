package providers

import (
	"context"
	"fmt"
	"os"
)

// ReviewRequest contains the data sent to an LLM for review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	// JSONMode asks the server for a JSON object response.
	JSONMode bool
}

// ReviewResponse contains the raw response from an LLM.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the provider abstraction interface.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

// Option adjusts a provider built by New.
type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the provider at a different OpenAI-compatible server.
// An empty url keeps the provider's environment or built-in default.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// New creates a provider by name.
func New(provider, model string, opts ...Option) (Reviewer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch provider {
	case "openai":
		return NewOpenAI(model, o.baseURL)
	case "ollama", "lmstudio":
		return NewOllama(model, o.baseURL)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// HasCredentials reports whether the provider can be called without an
// authentication error being certain. Local providers need no key.
func HasCredentials(provider string) bool {
	switch provider {
	case "openai":
		return openAIKey() != ""
	case "ollama", "lmstudio":
		return true
	default:
		return false
	}
}

func openAIKey() string {
	if k := os.Getenv("REVIEWGATE_OPENAI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("OPENAI_API_KEY")
}
