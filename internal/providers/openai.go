package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultOpenAIURL = "https://api.openai.com/v1"

// OpenAI implements the Reviewer interface for OpenAI's API and any
// compatible endpoint set through REVIEWGATE_OPENAI_BASE_URL.
type OpenAI struct {
	chatClient
}

// NewOpenAI creates a new OpenAI provider. baseURL overrides the
// environment when non-empty.
func NewOpenAI(model, baseURL string) (*OpenAI, error) {
	key := openAIKey()
	if key == "" {
		return nil, &authError{message: "REVIEWGATE_OPENAI_API_KEY (or OPENAI_API_KEY) is not set"}
	}
	if baseURL == "" {
		baseURL = os.Getenv("REVIEWGATE_OPENAI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{chatClient{
		apiKey: key,
		model:  model,
		url:    completionsURL(baseURL),
		client: &http.Client{Timeout: 120 * time.Second},
		guard:  newGuard("openai"),
	}}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	resp, err := o.complete(ctx, req)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("openai: %w", err)
	}
	return resp, nil
}
