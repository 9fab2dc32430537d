package openaiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/messages-qa-service/internal/infrastructure/resilience"
)

func testExecutor(attempts int) *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: attempts,
		BreakerEnabled:   false,
	})
}

func newTestClient(serverURL string, attempts int) *Client {
	return New(Config{
		APIKey:     "test-key",
		BaseURL:    serverURL + "/v1",
		ChatModel:  "gpt-4-turbo",
		EmbedModel: "text-embedding-3-small",
	}, testExecutor(attempts))
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 0, "embedding": [0.1, 0.2]},
				{"object": "embedding", "index": 1, "embedding": [0.3, 0.4]}
			],
			"model": "text-embedding-3-small"
		}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(newTestClient(server.URL, 1))
	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.3 {
		t.Fatalf("vectors out of order: %v", vectors)
	}
}

func TestEmbedRejectsEmptyTextBeforeRequest(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	embedder := NewEmbedder(newTestClient(server.URL, 1))
	if _, err := embedder.Embed(context.Background(), []string{"ok", "  "}); err == nil {
		t.Fatalf("expected error for empty input text")
	}
	if _, err := embedder.EmbedQuery(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty query text")
	}
	if hits != 0 {
		t.Fatalf("empty input must be rejected before any request, got %d hits", hits)
	}
}

func TestGenerateJSONSendsJSONResponseFormat(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"answer\":\"ok\",\"source_ids\":[]}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(server.URL, 1))
	content, err := gen.GenerateJSON(context.Background(), "system", "user prompt")
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if !strings.Contains(content, `"answer"`) {
		t.Fatalf("unexpected content: %q", content)
	}

	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", captured["response_format"])
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %v", captured["messages"])
	}
}

func TestGenerateJSONAuthFailureIsNotRetried(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(server.URL, 3))
	_, err := gen.GenerateJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatalf("expected error for auth failure")
	}
	if hits != 1 {
		t.Fatalf("auth failure must not be retried, got %d attempts", hits)
	}
}

func TestGenerateJSONRetriesServerErrors(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(server.URL, 3))
	_, err := gen.GenerateJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts for a retryable status, got %d", hits)
	}
}
