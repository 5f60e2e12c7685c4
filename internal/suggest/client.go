package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/jedgentry/llm-rename/pkg/types"
)

const (
	defaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 30 * time.Second
	defaultMaxTokens   = 150
	defaultTemperature = 0.2
	defaultMaxTries    = 3
	maxErrorBody       = 512
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse accepts chat completions and legacy text completions
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Text    string      `json:"text"`
	} `json:"choices"`
}

// Client requests rename suggestions from an OpenAI-compatible endpoint
type Client struct {
	httpClient      *http.Client
	endpoint        string
	apiKey          string
	model           string
	maxTokens       int
	temperature     float64
	limiter         *rate.Limiter
	maxTries        uint
	initialInterval time.Duration
}

// NewClient creates a client from cfg. The endpoint may be a base URL
// ("https://host" or "https://host/v1") or a full chat completions URL.
func NewClient(cfg types.LLMConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		endpoint:        normalizeEndpoint(cfg.Endpoint),
		apiKey:          cfg.APIKey,
		model:           model,
		maxTokens:       defaultMaxTokens,
		temperature:     defaultTemperature,
		limiter:         rate.NewLimiter(limit, 1),
		maxTries:        defaultMaxTries,
		initialInterval: 500 * time.Millisecond,
	}
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return defaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(endpoint, "/chat/completions") || strings.HasSuffix(endpoint, "/completions") {
		return endpoint
	}
	if strings.HasSuffix(endpoint, "/v1") {
		return endpoint + "/chat/completions"
	}
	return endpoint + "/v1/chat/completions"
}

// Endpoint returns the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RequestSuggestions posts prompt and parses the reply into names
func (c *Client) RequestSuggestions(ctx context.Context, prompt string) ([]string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal suggestion request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval

	startTime := time.Now()
	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		return c.post(ctx, body)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Warn("Retrying suggestion request",
				"endpoint", c.endpoint,
				"attempt", attempt,
				"wait_ms", wait.Milliseconds(),
				"error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	suggestions := ParseSuggestions(text)
	slog.Debug("Received suggestion response",
		"endpoint", c.endpoint,
		"model", c.model,
		"attempts", attempt,
		"suggestions", len(suggestions),
		"duration_ms", time.Since(startTime).Milliseconds())
	return suggestions, nil
}

// post sends one request. Errors that cannot succeed on retry are permanent.
func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to wait for rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create suggestion request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("failed to send suggestion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read suggestion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
		if statusErr.Retryable() {
			return "", statusErr
		}
		return "", backoff.Permanent(statusErr)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode suggestion response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", backoff.Permanent(errors.New("suggestion response has no choices"))
	}

	choice := parsed.Choices[0]
	if choice.Message.Content != "" {
		return choice.Message.Content, nil
	}
	return choice.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
