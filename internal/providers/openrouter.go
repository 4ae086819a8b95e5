package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// Rate limiting
	RPM        int           // Requests per minute (default: 150)
	MaxRetries int           // Max retry attempts (default: 3)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
}

// OpenRouterClient implements LLMClient using the OpenRouter API.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	limiter      *RateLimiter
	maxRetries   int
	retryDelay   time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic/claude-3.5-sonnet"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.RPM == 0 {
		cfg.RPM = 150
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    NewRateLimiter(cfg.RPM),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Chat sends a chat completion request. Transport and API failures are
// absorbed into the result (Success=false with ErrorType); only context
// cancellation is returned as an error.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenRouterName,
		ModelUsed: model,
	}

	// Bound the call with the request timeout, if any. The external service
	// has no enforced bound of its own. Only the caller's own cancellation
	// propagates as an error; hitting the derived deadline is absorbed into
	// the result like any other transport failure.
	parent := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		result.ErrorType = ErrorTypeNetwork
		result.ErrorMessage = "timed out waiting for rate limit: " + err.Error()
		return result, nil
	}

	orReq := openRouterRequest{
		Model:       model,
		Messages:    make([]openRouterMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	for _, m := range req.Messages {
		orMsg := openRouterMessage{Role: m.Role}

		// Vision messages interleave text with data-URL image parts.
		if len(m.Images) > 0 {
			content := []openRouterContent{
				{Type: "text", Text: m.Content},
			}
			for _, img := range m.Images {
				content = append(content, openRouterContent{
					Type: "image_url",
					ImageURL: &openRouterImageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
					},
				})
			}
			orMsg.Content = content
		} else {
			orMsg.Content = m.Content
		}

		orReq.Messages = append(orReq.Messages, orMsg)
	}

	orResp, attempts, err := c.doRequest(ctx, "/chat/completions", &orReq)
	result.Attempts = attempts
	result.ExecutionTime = time.Since(start)

	if err != nil {
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		result.ErrorType, result.ErrorMessage = classifyError(err)
		return result, nil
	}

	if len(orResp.Choices) == 0 {
		result.ErrorType = ErrorTypeEmpty
		result.ErrorMessage = "no choices in response"
		return result, nil
	}

	choice := orResp.Choices[0]
	result.Content = contentToString(choice.Message.Content)
	result.Truncated = choice.FinishReason == "length"
	result.PromptTokens = orResp.Usage.PromptTokens
	result.CompletionTokens = orResp.Usage.CompletionTokens
	result.TotalTokens = orResp.Usage.TotalTokens
	result.ModelUsed = orResp.Model
	result.Success = result.Content != ""
	if !result.Success {
		result.ErrorType = ErrorTypeEmpty
		result.ErrorMessage = "empty content in response"
	}

	return result, nil
}

// contentToString flattens string or multi-part message content.
func contentToString(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var out string
		for _, part := range v {
			if m, ok := part.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					out += text
				}
			}
		}
		return out
	default:
		return ""
	}
}

// classifyError maps request errors onto the provider error taxonomy.
func classifyError(err error) (errType, msg string) {
	msg = err.Error()
	var apiErr *apiStatusError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrorTypeAuth, msg
		case http.StatusTooManyRequests:
			return ErrorTypeRateLimit, msg
		default:
			return ErrorTypeAPI, msg
		}
	}
	return ErrorTypeNetwork, msg
}

// apiStatusError carries the HTTP status of a failed OpenRouter call.
type apiStatusError struct {
	Status int
	Body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("openrouter error (status %d): %s", e.Status, e.Body)
}
