package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ResponseText string
	// Responses, when set, are returned in order (last one repeats).
	Responses []string
	// FailWith, when non-empty, makes every call fail with that error type.
	FailWith string
	// Truncate marks responses as having hit the output-length cap.
	Truncate bool

	// LastRequest records the most recent request for assertions.
	LastRequest *ChatRequest

	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat returns the scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	count := c.requestCount.Add(1)
	c.LastRequest = req

	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.FailWith != "" {
		result.ErrorType = c.FailWith
		result.ErrorMessage = "scripted failure: " + c.FailWith
		return result, nil
	}

	content := c.ResponseText
	if len(c.Responses) > 0 {
		idx := int(count) - 1
		if idx >= len(c.Responses) {
			idx = len(c.Responses) - 1
		}
		content = c.Responses[idx]
	}

	result.Content = content
	result.Success = content != ""
	result.Truncated = c.Truncate
	if !result.Success {
		result.ErrorType = ErrorTypeEmpty
		result.ErrorMessage = "empty scripted response"
	}
	return result, nil
}

// Calls returns the number of requests made.
func (c *MockClient) Calls() int {
	return int(c.requestCount.Load())
}
