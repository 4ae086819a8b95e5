package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMockClientScriptedResponses(t *testing.T) {
	mock := NewMockClient()
	mock.Responses = []string{"first", "second"}

	ctx := context.Background()
	for i, want := range []string{"first", "second", "second"} {
		res, err := mock.Chat(ctx, &ChatRequest{})
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if !res.Success || res.Content != want {
			t.Fatalf("call %d: got %q want %q", i, res.Content, want)
		}
	}
	if mock.Calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.Calls())
	}
}

func TestMockClientFailure(t *testing.T) {
	mock := NewMockClient()
	mock.FailWith = ErrorTypeRateLimit

	res, err := mock.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("scripted failure must not return an error: %v", err)
	}
	if res.Success || res.ErrorType != ErrorTypeRateLimit {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&apiStatusError{Status: http.StatusUnauthorized}, ErrorTypeAuth},
		{&apiStatusError{Status: http.StatusForbidden}, ErrorTypeAuth},
		{&apiStatusError{Status: http.StatusTooManyRequests}, ErrorTypeRateLimit},
		{&apiStatusError{Status: http.StatusBadGateway}, ErrorTypeAPI},
		{errors.New("dial tcp: connection refused"), ErrorTypeNetwork},
	}
	for _, c := range cases {
		got, _ := classifyError(c.err)
		if got != c.want {
			t.Fatalf("classifyError(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestContentToString(t *testing.T) {
	if got := contentToString("plain"); got != "plain" {
		t.Fatalf("string content mangled: %q", got)
	}

	multi := []any{
		map[string]any{"type": "text", "text": "part one "},
		map[string]any{"type": "text", "text": "part two"},
		map[string]any{"type": "image_url"},
	}
	if got := contentToString(multi); got != "part one part two" {
		t.Fatalf("multipart content mangled: %q", got)
	}

	if got := contentToString(42); got != "" {
		t.Fatalf("unknown content should flatten to empty, got %q", got)
	}
}

func TestShouldRetry(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test"})
	for _, status := range []int{429, 500, 502, 520, 524} {
		if !client.shouldRetry(status) {
			t.Fatalf("status %d should be retryable", status)
		}
	}
	for _, status := range []int{400, 401, 403, 404} {
		if client.shouldRetry(status) {
			t.Fatalf("status %d should not be retryable", status)
		}
	}
}

func TestOpenRouterChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "gen-1",
			"model": "anthropic/claude-3.5-sonnet",
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: srv.URL})
	res, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !res.Success || res.Content != "hello" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.TotalTokens != 12 || res.Truncated {
		t.Fatalf("usage not recorded: %+v", res)
	}
}

func TestOpenRouterChatAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "bad", BaseURL: srv.URL})
	res, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("auth failure must be absorbed into the result: %v", err)
	}
	if res.Success || res.ErrorType != ErrorTypeAuth {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestOpenRouterTruncationFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"choices": [{"message": {"role": "assistant", "content": "partial"}, "finish_reason": "length"}]
		}`)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL})
	res, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !res.Truncated {
		t.Fatal("finish_reason length should set Truncated")
	}
	if !res.Success || res.Content != "partial" {
		t.Fatalf("truncated content still usable: %+v", res)
	}
}

func TestOpenRouterRequestTimeoutAbsorbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "late"}, "finish_reason": "stop"}]}`)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL, MaxRetries: 1})
	res, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Timeout:  30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("request timeout must be absorbed so the caller can fall back: %v", err)
	}
	if res.Success || res.ErrorType != ErrorTypeNetwork {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestOpenRouterCallerCancellationPropagates(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1", MaxRetries: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Chat(ctx, &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Timeout:  time.Second,
	}); err == nil {
		t.Fatal("cancelled caller context must surface as an error")
	}
}

func TestRateLimiterConsumesTokens(t *testing.T) {
	limiter := NewRateLimiter(600) // 10/sec, plenty for the test

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
	if limiter.totalConsumed != 5 {
		t.Fatalf("expected 5 consumed tokens, got %d", limiter.totalConsumed)
	}
}

func TestRateLimiterRespectsCancellation(t *testing.T) {
	limiter := NewRateLimiter(1)
	limiter.tokens = 0 // force a wait

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected context error while waiting for tokens")
	}
}

func TestRecord429DrainsBucket(t *testing.T) {
	limiter := NewRateLimiter(60)
	limiter.Record429(time.Second)
	if limiter.tokens != 0 {
		t.Fatalf("bucket not drained after 429: %v", limiter.tokens)
	}
}
