package explain

import (
	"errors"
	"fmt"

	"github.com/dhbtk/webtarot/internal/i18n"
)

// Sentinel errors shared by every backend. API failures carry extra detail
// through APIError, which wraps ErrAPIError.
var (
	// ErrMissingAPIKey indicates the backend has no credential configured.
	ErrMissingAPIKey = errors.New("api key not configured")

	// ErrRequestFailed indicates the HTTP call to the backend never
	// produced a response (network failure, timeout, cancellation).
	ErrRequestFailed = errors.New("request to language model failed")

	// ErrAPIError indicates the backend answered with a non-success status.
	ErrAPIError = errors.New("language model returned an error")

	// ErrEmptyResponse indicates the backend answered successfully but
	// produced no usable text.
	ErrEmptyResponse = errors.New("language model returned an empty response")

	// ErrUnknownBackend indicates the request named a backend the
	// dispatcher does not know.
	ErrUnknownBackend = errors.New("unknown interpretation backend")
)

// APIError carries the status and body of a failed backend call.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("language model returned an error (status %d): %s", e.StatusCode, e.Body)
}

// Unwrap makes APIError match ErrAPIError via errors.Is.
func (e *APIError) Unwrap() error {
	return ErrAPIError
}

// LocalizeError renders an explain failure as a message fit to show the
// querent in the given locale. Raw provider detail never leaks through;
// callers log the underlying error server-side.
func LocalizeError(l i18n.Locale, err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return i18n.T(l, "explain.missing_api_key")
	case errors.Is(err, ErrAPIError):
		return i18n.T(l, "explain.api_error")
	case errors.Is(err, ErrRequestFailed):
		return i18n.T(l, "explain.request_failed")
	case errors.Is(err, ErrEmptyResponse):
		return i18n.T(l, "explain.empty_response")
	case errors.Is(err, ErrUnknownBackend):
		return i18n.T(l, "explain.unknown_backend")
	default:
		return i18n.T(l, "explain.unexpected_error")
	}
}
