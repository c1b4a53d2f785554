// Package gemini provides the Gemini interpretation backend via Google's
// genai API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genai"

	"github.com/dhbtk/webtarot/internal/explain"
	"github.com/dhbtk/webtarot/internal/redact"
)

// Config holds the settings for the Gemini explainer.
type Config struct {
	// APIKey authenticates against the Gemini API. Empty means the backend
	// is unconfigured; every call fails with explain.ErrMissingAPIKey.
	APIKey string

	// Model names the Gemini model to use.
	Model string

	// MaxRetries bounds retry attempts for transient failures.
	// Zero means 3.
	MaxRetries int

	// RetryDelaySeconds is the base delay for exponential backoff.
	// Zero means 2.
	RetryDelaySeconds int
}

// Explainer implements explain.Explainer using the Gemini API.
type Explainer struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

// NewExplainer creates a Gemini explainer. A missing API key is not an
// error at construction time: the backend stays registered and reports
// explain.ErrMissingAPIKey per call, matching the ChatGPT client.
func NewExplainer(ctx context.Context, cfg Config, log *slog.Logger) (*Explainer, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelaySeconds <= 0 {
		cfg.RetryDelaySeconds = 2
	}

	e := &Explainer{
		cfg:    cfg,
		logger: log.With(slog.String("component", "gemini_explainer")),
	}

	if cfg.APIKey == "" {
		return e, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	e.client = client
	return e, nil
}

// Ensure Explainer implements explain.Explainer
var _ explain.Explainer = (*Explainer)(nil)

// Explain implements explain.Explainer. Transient API failures are retried
// with exponential backoff and jitter; empty or safety-blocked responses are
// permanent and fail immediately.
func (e *Explainer) Explain(ctx context.Context, req explain.Request) (string, error) {
	if e.client == nil {
		return "", explain.ErrMissingAPIKey
	}

	prompt := explain.UserPrompt(req)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(explain.SystemPrompt(req.Locale), genai.RoleUser),
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		e.logger.Debug("calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", e.cfg.MaxRetries+1))

		resp, err := e.client.Models.GenerateContent(ctx, e.cfg.Model, genai.Text(prompt), genCfg)
		if err == nil {
			text, permErr := extractText(resp)
			if permErr != nil {
				e.logger.Warn("Gemini returned unusable response",
					slog.String("error", permErr.Error()))
				return "", permErr
			}
			return text, nil
		}

		lastErr = err
		e.logger.Error("Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", redact.Error(err)))

		if attempt >= e.cfg.MaxRetries {
			break
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoff := float64(e.cfg.RetryDelaySeconds) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", explain.ErrRequestFailed, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: %v", explain.ErrRequestFailed, lastErr)
}

// extractText pulls the generated text out of a response, treating blocked
// or empty candidates as permanent failures.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", explain.ErrEmptyResponse
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", explain.ErrEmptyResponse)
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", explain.ErrEmptyResponse
	}
	return text, nil
}
