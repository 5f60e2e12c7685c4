package suggest

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when no endpoint or API key is configured
var ErrNotConfigured = errors.New("suggestion service is not configured: set endpoint and api_key")

// StatusError is a non-2xx response from the suggestion service
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("suggestion service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
