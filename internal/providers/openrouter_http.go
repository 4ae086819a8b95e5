package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// doRequest makes an HTTP request to OpenRouter with retry logic.
// Returns the parsed response, the number of attempts made, and an error
// (the last one seen) when all attempts are exhausted.
func (c *OpenRouterClient) doRequest(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, int, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}

		bodyBytes, err := json.Marshal(orReq)
		if err != nil {
			return nil, attempt, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, attempt, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		if c.shouldRetry(resp.StatusCode) {
			if resp.StatusCode == http.StatusTooManyRequests {
				c.limiter.Record429(c.retryDelay)
			}
			lastErr = &apiStatusError{Status: resp.StatusCode, Body: string(respBody)}
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		// Non-retryable error
		if resp.StatusCode != http.StatusOK {
			return nil, attempt + 1, &apiStatusError{Status: resp.StatusCode, Body: string(respBody)}
		}

		var orResp openRouterResponse
		if err := json.Unmarshal(respBody, &orResp); err != nil {
			return nil, attempt + 1, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		// API-level error in a 200 body
		if orResp.Error != nil {
			lastErr = fmt.Errorf("openrouter api error: %s", orResp.Error.Message)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		return &orResp, attempt + 1, nil
	}

	return nil, c.maxRetries, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// shouldRetry returns true for status codes that should be retried.
func (c *OpenRouterClient) shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests:
		return true
	case 520, 521, 522, 523, 524: // Cloudflare errors
		return true
	default:
		return statusCode >= 500
	}
}

// sleepWithJitter waits with exponential backoff plus jitter before a retry.
func (c *OpenRouterClient) sleepWithJitter(ctx context.Context, attempt int) {
	delay := c.retryDelay * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Int63n(int64(c.retryDelay)))

	select {
	case <-ctx.Done():
	case <-time.After(delay + jitter):
	}
}
