package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/weissjeffm/mybot/internal/httpkit"
)

// OpenAIClient talks to any OpenAI-compatible chat completions API
// (LocalAI, vLLM, llama.cpp server, or the hosted API).
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	temperature float64
	maxTokens   int
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithTemperature sets the sampling temperature (default 0).
func WithTemperature(t float64) OpenAIOption {
	return func(c *OpenAIClient) { c.temperature = t }
}

// WithMaxTokens caps completion length. Zero leaves it to the server.
func WithMaxTokens(n int) OpenAIOption {
	return func(c *OpenAIClient) { c.maxTokens = n }
}

// WithMaxAttempts sets the bounded retry count for a Chat call,
// including the first attempt (default 3).
func WithMaxAttempts(n int) OpenAIOption {
	return func(c *OpenAIClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) OpenAIOption {
	return func(c *OpenAIClient) { c.logger = l }
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
// baseURL should include the /v1 suffix (e.g., "http://localhost:8080/v1").
func NewOpenAIClient(baseURL, apiKey string, opts ...OpenAIOption) *OpenAIClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080/v1"
	}
	c := &OpenAIClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
		// Large models need time; the per-turn deadline comes from the
		// caller's context.
		httpClient: httpkit.NewClient(httpkit.WithTimeout(0)),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// chatRequest is the request body for /chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatCompletion is the response body from /chat/completions.
type chatCompletion struct {
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat sends a chat completion request. Transient failures (transport
// errors, HTTP 429 and 5xx) are retried up to the configured attempt
// bound with a fixed delay; anything else fails immediately.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying model call",
				"model", model,
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"error", lastErr,
			)
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, retryable, err := c.chatOnce(ctx, model, messages)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("model call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// chatOnce performs one completion request. The middle return value
// reports whether the failure is worth retrying.
func (c *OpenAIClient) chatOnce(ctx context.Context, model string, messages []Message) (*ChatResponse, bool, error) {
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := httpkit.ReadErrorBody(resp.Body, 512)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("API error %d: %s", resp.StatusCode, errBody)
	}

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, true, fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return nil, false, fmt.Errorf("API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, true, fmt.Errorf("empty choices in response")
	}

	elapsed := time.Since(start)
	c.logger.Log(ctx, slog.LevelDebug, "model call complete",
		"model", model,
		"input_tokens", completion.Usage.PromptTokens,
		"output_tokens", completion.Usage.CompletionTokens,
		"elapsed", elapsed.Round(time.Millisecond),
	)

	return &ChatResponse{
		Model:        completion.Model,
		Message:      completion.Choices[0].Message,
		CreatedAt:    time.Unix(completion.Created, 0),
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		Elapsed:      elapsed,
	}, false, nil
}

// Ping checks that the endpoint is reachable by listing models.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: HTTP %d", resp.StatusCode)
	}
	return nil
}
