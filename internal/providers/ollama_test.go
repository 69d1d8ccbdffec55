package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected without a key")
		}
		writeContent(w, "{}")
	}))
	defer server.Close()

	o := &Ollama{testClient(server, "")}

	resp, err := o.Review(context.Background(), ReviewRequest{SystemPrompt: "test", UserPrompt: "test"})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "{}" {
		t.Errorf("Content = %q, want %q", resp.Content, "{}")
	}
}

func TestOllama_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(500)
		w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer server.Close()

	o := &Ollama{testClient(server, "")}

	_, err := o.Review(context.Background(), ReviewRequest{SystemPrompt: "test", UserPrompt: "test"})
	if err == nil {
		t.Fatal("Expected error for server error response")
	}
	// 1 initial + 3 retries
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts)
	}
}

func TestOllama_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	o := &Ollama{testClient(server, "")}

	_, err := o.Review(context.Background(), ReviewRequest{SystemPrompt: "test", UserPrompt: "test"})
	if err == nil {
		t.Fatal("Expected error for empty response")
	}
}

func TestOllama_Name(t *testing.T) {
	o := &Ollama{}
	if o.Name() != "ollama" {
		t.Errorf("Name() = %q, want %q", o.Name(), "ollama")
	}
}

func TestNewOllama_URLNormalization(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantURL string
	}{
		{
			name:    "default",
			host:    "",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "trailing slash",
			host:    "http://localhost:11434/",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "with v1",
			host:    "http://localhost:11434/v1",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "with full path",
			host:    "http://localhost:11434/v1/chat/completions",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "custom host",
			host:    "http://192.168.1.100:11434",
			wantURL: "http://192.168.1.100:11434/v1/chat/completions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OLLAMA_HOST", tt.host)
			t.Setenv("REVIEWGATE_OLLAMA_API_KEY", "")

			o, err := NewOllama("llama3", "")
			if err != nil {
				t.Fatalf("NewOllama error: %v", err)
			}
			if o.url != tt.wantURL {
				t.Errorf("url = %q, want %q", o.url, tt.wantURL)
			}
		})
	}
}

func TestFactory_OllamaAliases(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")

	for _, name := range []string{"ollama", "lmstudio"} {
		r, err := New(name, "llama3")
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if r.Name() != "ollama" {
			t.Errorf("New(%q).Name() = %q, want %q", name, r.Name(), "ollama")
		}
	}
}

func TestFactory_WithBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://ignored:1")
	r, err := New("ollama", "llama3", WithBaseURL("http://gpu-box:11434"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := r.(*Ollama).url; got != "http://gpu-box:11434/v1/chat/completions" {
		t.Errorf("url = %q", got)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("unknown", "model"); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestHasCredentials(t *testing.T) {
	t.Setenv("REVIEWGATE_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if HasCredentials("openai") {
		t.Error("openai without a key should report no credentials")
	}
	if !HasCredentials("ollama") {
		t.Error("ollama needs no credentials")
	}
	if HasCredentials("nope") {
		t.Error("unknown provider has no credentials")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if !HasCredentials("openai") {
		t.Error("OPENAI_API_KEY should count as credentials")
	}
}
