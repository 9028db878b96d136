package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const validReviewJSON = `{
	"suggested_prompt": "An improved prompt",
	"questions": ["What is the goal?"],
	"refinements": ["Add examples"],
	"ratings": {"length": 7.0, "complexity": 6.0, "specificity": 8.0, "clarity": 7.0, "creativity": 6.5, "context": 7.0},
	"feedback": "Good start"
}`

func openaiReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func newTestOpenAI(t *testing.T, url string) *OpenAI {
	t.Helper()
	c, err := NewOpenAI(Settings{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.SetTestTransport(url)
	return c
}

func TestNewOpenAI_KeyValidation(t *testing.T) {
	if _, err := NewOpenAI(Settings{}); !errors.Is(err, ErrAPIKey) {
		t.Errorf("expected ErrAPIKey for missing key, got %v", err)
	}
	if _, err := NewOpenAI(Settings{APIKey: "not-a-key"}); !errors.Is(err, ErrAPIKey) {
		t.Errorf("expected ErrAPIKey for malformed key, got %v", err)
	}
	c, err := NewOpenAI(Settings{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != "gpt-4-turbo" {
		t.Errorf("expected default model gpt-4-turbo, got %q", c.Model())
	}
}

func TestOpenAI_GenerateReview_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["model"] != "gpt-4-turbo" {
			t.Errorf("expected model gpt-4-turbo, got %v", req["model"])
		}
		if rf, ok := req["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
			t.Errorf("expected json_object response format, got %v", req["response_format"])
		}
		messages := req["messages"].([]any)
		if len(messages) != 2 {
			t.Fatalf("expected system+user messages, got %d", len(messages))
		}

		json.NewEncoder(w).Encode(openaiReply(validReviewJSON))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	result, err := c.GenerateReview(context.Background(), "my prompt", "be kind", 0.7, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["suggested_prompt"] != "An improved prompt" {
		t.Errorf("unexpected result: %v", result)
	}
}

func TestOpenAI_GenerateReview_FencedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiReply("```json\n" + validReviewJSON + "\n```"))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	result, err := c.GenerateReview(context.Background(), "my prompt", "be kind", 0.7, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["feedback"] != "Good start" {
		t.Errorf("unexpected result: %v", result)
	}
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(openaiReply(validReviewJSON))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	_, err := c.GenerateReview(context.Background(), "p", "s", 0.7, 2000)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestOpenAI_RateLimitCeilingOne(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	c.SetRetryPolicy(1, 0)

	_, err := c.GenerateReview(context.Background(), "p", "s", 0.7, 2000)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls.Load())
	}
}

func TestOpenAI_RateLimitExhaustsCeiling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	_, err := c.GenerateReview(context.Background(), "p", "s", 0.7, 2000)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestOpenAI_ParseFailureRetriesThenSurfaces(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(openaiReply("I'm sorry, I can't produce JSON today."))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	_, err := c.GenerateReview(context.Background(), "p", "s", 0.7, 2000)
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected parse failures to be retried 3 times, got %d", calls.Load())
	}
}

func TestOpenAI_ClientErrorIsFatalImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "bad request"},
		})
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL)
	_, err := c.GenerateReview(context.Background(), "p", "s", 0.7, 2000)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrParse) {
		t.Errorf("400 should be unclassified, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retry for client error, got %d attempts", calls.Load())
	}
}

func TestOpenAI_CountTokens(t *testing.T) {
	c, _ := NewOpenAI(Settings{APIKey: "sk-test"})
	if got := c.CountTokens("12345678"); got != 2 {
		t.Errorf("expected 2 tokens for 8 chars, got %d", got)
	}
}

func TestOpenAI_EstimateCost(t *testing.T) {
	c, _ := NewOpenAI(Settings{APIKey: "sk-test"})
	// gpt-4-turbo: $10 input, $30 output per 1M tokens.
	got := c.EstimateCost(1_000_000, 1_000_000)
	if got != 40.0 {
		t.Errorf("expected cost 40.0, got %v", got)
	}

	unknown, _ := NewOpenAI(Settings{APIKey: "sk-test", Model: "gpt-9-experimental"})
	if unknown.EstimateCost(1_000_000, 1_000_000) != 40.0 {
		t.Error("unknown model should fall back to default pricing")
	}
}
