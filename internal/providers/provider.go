// Package providers wraps external LLM services behind a fixed interface.
// The structure generator is treated as an unreliable dependency: calls never
// panic past this boundary, and failures surface as results with a reason.
package providers

import (
	"context"
	"time"
)

// LLMClient is the interface for structure-generation requests.
type LLMClient interface {
	// Chat sends a chat completion request. A non-nil result is always
	// returned; transport and API failures set Success=false with an
	// ErrorType rather than propagating, except for context cancellation.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openrouter").
	Name() string
}

// Error types reported in ChatResult.ErrorType.
const (
	ErrorTypeNetwork   = "network"
	ErrorTypeAuth      = "auth"
	ErrorTypeRateLimit = "rate_limit"
	ErrorTypeAPI       = "api"
	ErrorTypeEmpty     = "empty_response"
)

// Message represents a chat message.
type Message struct {
	Role    string   `json:"role"` // "system", "user", "assistant"
	Content string   `json:"content"`
	Images  [][]byte `json:"-"` // For vision models (base64 encoded in request)
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. Structure extraction always uses temperature 0
	// for deterministic decoding; MaxTokens bounds the output length.
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Timeout     time.Duration

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Truncated is set when the generator hit the output-length cap
	// (finish_reason "length"). The content is still returned; the repair
	// cascade handles the malformed tail.
	Truncated bool `json:"truncated,omitempty"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
