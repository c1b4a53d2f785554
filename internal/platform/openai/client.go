// Package openai provides the ChatGPT interpretation backend via the
// OpenAI Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dhbtk/webtarot/internal/explain"
	"github.com/dhbtk/webtarot/internal/redact"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config holds the settings for the OpenAI client.
type Config struct {
	// APIKey authenticates against the API. Empty means the backend is
	// unconfigured; every call fails with explain.ErrMissingAPIKey.
	APIKey string

	// BaseURL points at the API root, e.g. "https://api.openai.com/v1".
	// Overridable for tests and compatible gateways.
	BaseURL string

	// Model names the chat model to use.
	Model string

	// Timeout bounds a single completion call. Zero means 5 minutes.
	Timeout time.Duration
}

// Client implements explain.Explainer against the Chat Completions API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a ChatGPT explainer. If log is nil, a default logger
// will be used.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.With(slog.String("component", "openai_client")),
	}
}

// Ensure Client implements explain.Explainer
var _ explain.Explainer = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Explain implements explain.Explainer.
func (c *Client) Explain(ctx context.Context, req explain.Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", explain.ErrMissingAPIKey
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: explain.SystemPrompt(req.Locale)},
			{Role: "user", Content: explain.UserPrompt(req)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport errors echo the request URL, which can carry the key
		// when a gateway puts it in the query string.
		c.logger.Error("chat completion call failed",
			slog.String("error", redact.Error(err)),
			slog.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("%w: %v", explain.ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("chat completion returned error status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return "", &explain.APIError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", explain.ErrRequestFailed, err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", explain.ErrEmptyResponse
	}

	c.logger.Debug("chat completion succeeded",
		slog.Duration("elapsed", time.Since(start)))
	return parsed.Choices[0].Message.Content, nil
}
