package fetch

import (
	"errors"
	"fmt"
)

// Common errors returned by the fetch client.
var (
	// ErrNotFound indicates the paper was not found.
	ErrNotFound = errors.New("paper not found")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("semantic scholar authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("semantic scholar rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error fetching paper")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from paper API")

	// ErrNoPDF indicates no open-access PDF is available for the paper.
	ErrNoPDF = errors.New("no open-access PDF available")
)

// APIError represents an error response from a bibliographic API.
type APIError struct {
	StatusCode int
	Message    string
	PaperID    string
}

func (e *APIError) Error() string {
	if e.PaperID != "" {
		return fmt.Sprintf("paper API error (status %d): %s (paper: %s)", e.StatusCode, e.Message, e.PaperID)
	}
	return fmt.Sprintf("paper API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates the paper does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
