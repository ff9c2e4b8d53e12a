package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zombar/seoaudit/models"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		baseURL     string
		model       string
		timeout     time.Duration
		wantBaseURL string
		wantModel   string
		wantTimeout time.Duration
	}{
		{
			name:        "default values",
			baseURL:     "",
			model:       "",
			wantBaseURL: DefaultBaseURL,
			wantModel:   DefaultModel,
			wantTimeout: DefaultTimeout,
		},
		{
			name:        "custom values",
			baseURL:     "http://custom:11434",
			model:       "custom-model",
			timeout:     5 * time.Minute,
			wantBaseURL: "http://custom:11434",
			wantModel:   "custom-model",
			wantTimeout: 5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.baseURL, tt.model, tt.timeout)
			if client.baseURL != tt.wantBaseURL {
				t.Errorf("baseURL = %s, want %s", client.baseURL, tt.wantBaseURL)
			}
			if client.model != tt.wantModel {
				t.Errorf("model = %s, want %s", client.model, tt.wantModel)
			}
			if client.httpClient == nil {
				t.Fatal("httpClient is nil")
			}
			if client.httpClient.Timeout != tt.wantTimeout {
				t.Errorf("timeout = %s, want %s", client.httpClient.Timeout, tt.wantTimeout)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	// Create a test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected /api/generate path, got %s", r.URL.Path)
		}

		// Decode request
		var req models.OllamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		// Send response
		resp := models.OllamaResponse{
			Model:     req.Model,
			CreatedAt: time.Now().Format(time.RFC3339),
			Response:  "This is a test response",
			Done:      true,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", 0)
	ctx := context.Background()

	response, err := client.Generate(ctx, "test prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if response != "This is a test response" {
		t.Errorf("Unexpected response: %s", response)
	}
}

func TestGenerateError(t *testing.T) {
	// Create a test server that returns an error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal server error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", 0)
	ctx := context.Background()

	_, err := client.Generate(ctx, "test prompt")
	if err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestGenerateContextCancellation(t *testing.T) {
	// Create a test server that delays
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		resp := models.OllamaResponse{
			Response: "Too late",
			Done:     true,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "test prompt")
	if err == nil {
		t.Error("Expected timeout error, got nil")
	}
}

func TestGenerateSendsModelAndPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.OllamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("Expected model test-model, got %s", req.Model)
		}
		if req.Prompt != "expand this article" {
			t.Errorf("Unexpected prompt: %s", req.Prompt)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		json.NewEncoder(w).Encode(models.OllamaResponse{Response: "ok", Done: true})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "test-model", 0)
	if _, err := client.Generate(context.Background(), "expand this article"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", 0)
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Error("Expected decode error, got nil")
	}
}

func TestStripMarkdownCodeBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fences",
			input: "  <p>plain</p>  ",
			want:  "<p>plain</p>",
		},
		{
			name:  "html fence",
			input: "```html\n<h2>Title</h2>\n<p>Body</p>\n```",
			want:  "<h2>Title</h2>\n<p>Body</p>",
		},
		{
			name:  "unterminated fence",
			input: "```\n<p>Body</p>",
			want:  "<p>Body</p>",
		},
		{
			name:  "fence only",
			input: "```",
			want:  "```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripMarkdownCodeBlocks(tt.input); got != tt.want {
				t.Errorf("stripMarkdownCodeBlocks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "string shorter than max",
			input:  "short",
			maxLen: 10,
			want:   "short",
		},
		{
			name:   "string equal to max",
			input:  "exactly10c",
			maxLen: 10,
			want:   "exactly10c",
		},
		{
			name:   "string longer than max",
			input:  "this is a very long string",
			maxLen: 10,
			want:   "this is a ...",
		},
		{
			name:   "multibyte characters",
			input:  "سلام دنیا",
			maxLen: 4,
			want:   "سلام...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.want {
				t.Errorf("truncateString() = %q, want %q", result, tt.want)
			}
		})
	}
}
